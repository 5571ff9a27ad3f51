package main

import "osumap/dotosu"

type Modifiers struct {
	Rate float64

	Hardrock bool
	Easy     bool
}

// MapConstants are the gameplay values derived from a map's difficulty
// settings under the given modifiers. Times are in milliseconds.
type MapConstants struct {
	Mods         Modifiers
	CircleRadius float64
	ApproachRate float64
	Preempt      float64
	Window300    float64
	Window100    float64
	Window50     float64
}

func GetMapConstants(diff dotosu.Difficulty, mods Modifiers) MapConstants {
	if mods.Rate <= 0 {
		mods.Rate = 1
	}

	cs := diff.CircleSize
	od := diff.OverallDifficulty
	ar := diff.ApproachRate
	if mods.Hardrock {
		cs = min(cs*1.3, 10)
		od = min(10, od*1.4)
		ar = min(10, ar*1.4)
	}
	if mods.Easy {
		cs = cs / 2
		od = od / 2
		ar = ar / 2
	}

	preempt := ApproachRateToPreempt(ar) / mods.Rate

	return MapConstants{
		Mods:         mods,
		CircleRadius: 54.4 - 4.48*cs,
		ApproachRate: PreemptToAR(preempt),
		Preempt:      preempt,
		Window300:    (80 - 6*od) / mods.Rate, //+- this
		Window100:    (140 - 8*od) / mods.Rate,
		Window50:     (200 - 10*od) / mods.Rate,
	}
}

func ApproachRateToPreempt(ar float64) float64 {
	if ar < 5 {
		return 1200 + 120*(5-ar)
	} else if ar == 5 {
		return 1200
	} else {
		return 1200 - 150*(ar-5)
	}
}

func PreemptToAR(preempt float64) float64 {
	if preempt > 1200 {
		return 5 - (preempt-1200)/120
	} else if preempt == 1200 {
		return 5
	} else {
		return 5 + (1200-preempt)/150
	}
}
