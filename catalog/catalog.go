package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"osumap/dotosu"
)

var ErrNotFound = errors.New("beatmap not in catalog")

// Entry is the stored summary of one decoded .osu file, keyed by the MD5 of
// the file content.
type Entry struct {
	Checksum      string
	Path          string
	FormatVersion int
	Mode          dotosu.GameMode

	Title   string
	Artist  string
	Creator string
	Version string

	CircleSize        float64
	OverallDifficulty float64
	ApproachRate      float64
	HPDrainRate       float64
	BPM               float64 // first uninherited timing point, 0 if none

	Circles      int
	Sliders      int
	Spinners     int
	TimingPoints int

	IndexedAt time.Time
}

func (e Entry) Objects() int { return e.Circles + e.Sliders + e.Spinners }

type Failure struct {
	Path     string
	Checksum string
	Reason   string
}

func EntryFromBeatmap(path, checksum string, b *dotosu.Beatmap) Entry {
	e := Entry{
		Checksum:          checksum,
		Path:              path,
		FormatVersion:     b.FormatVersion,
		Mode:              b.Mode,
		Title:             b.Metadata.Title,
		Artist:            b.Metadata.Artist,
		Creator:           b.Metadata.Creator,
		Version:           b.Metadata.Version,
		CircleSize:        b.Difficulty.CircleSize,
		OverallDifficulty: b.Difficulty.OverallDifficulty,
		ApproachRate:      b.Difficulty.ApproachRate,
		HPDrainRate:       b.Difficulty.HPDrainRate,
		Circles:           b.CountCircles,
		Sliders:           b.CountSliders,
		Spinners:          b.CountSpinners,
		TimingPoints:      len(b.TimingPoints),
	}
	for _, tp := range b.TimingPoints {
		if tp.Change {
			e.BPM = tp.BPM()
			break
		}
	}
	return e
}

const schema = `
create table if not exists beatmaps (
	checksum           text not null primary key,
	path               text not null,
	format_version     integer not null,
	mode               integer not null,
	title              text not null,
	artist             text not null,
	creator            text not null,
	version            text not null,
	circle_size        real not null,
	overall_difficulty real not null,
	approach_rate      real not null,
	hp_drain_rate      real not null,
	bpm                real not null,
	circles            integer not null,
	sliders            integer not null,
	spinners           integer not null,
	timing_points      integer not null,
	indexed_at         integer not null
);
create index if not exists beatmaps_mode on beatmaps (mode);
create table if not exists failures (
	path      text not null primary key,
	checksum  text not null,
	reason    text not null,
	failed_at integer not null
);
`

var entryColumns = []string{
	"checksum", "path", "format_version", "mode", "title", "artist", "creator", "version",
	"circle_size", "overall_difficulty", "approach_rate", "hp_drain_rate", "bpm",
	"circles", "sliders", "spinners", "timing_points", "indexed_at",
}

type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Catalog{db: db, now: time.Now}, nil
}

func (c *Catalog) Close() error { return c.db.Close() }

// Put inserts or replaces the entry with the same checksum and clears any
// failure recorded for its path.
func (c *Catalog) Put(ctx context.Context, e Entry) error {
	if e.IndexedAt.IsZero() {
		e.IndexedAt = c.now()
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args, err := sq.Insert("beatmaps").
		Columns(entryColumns...).
		Values(
			e.Checksum, e.Path, e.FormatVersion, int(e.Mode), e.Title, e.Artist, e.Creator, e.Version,
			e.CircleSize, e.OverallDifficulty, e.ApproachRate, e.HPDrainRate, e.BPM,
			e.Circles, e.Sliders, e.Spinners, e.TimingPoints, e.IndexedAt.Unix(),
		).
		Suffix("on conflict(checksum) do update set " +
			"path = excluded.path, indexed_at = excluded.indexed_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store %s: %w", e.Path, err)
	}
	if _, err := tx.ExecContext(ctx, "delete from failures where path = ?", e.Path); err != nil {
		return err
	}
	return tx.Commit()
}

func (c *Catalog) RecordFailure(ctx context.Context, f Failure) error {
	_, err := c.db.ExecContext(ctx,
		`insert into failures (path, checksum, reason, failed_at) values (?, ?, ?, ?)
		 on conflict(path) do update set checksum = excluded.checksum, reason = excluded.reason, failed_at = excluded.failed_at`,
		f.Path, f.Checksum, f.Reason, c.now().Unix())
	if err != nil {
		return fmt.Errorf("record failure for %s: %w", f.Path, err)
	}
	return nil
}

func (c *Catalog) Failures(ctx context.Context) ([]Failure, error) {
	rows, err := c.db.QueryContext(ctx, "select path, checksum, reason from failures order by path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Path, &f.Checksum, &f.Reason); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (c *Catalog) Get(ctx context.Context, checksum string) (Entry, error) {
	entries, err := c.query(ctx, sq.Select(entryColumns...).From("beatmaps").Where(sq.Eq{"checksum": checksum}))
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[0], nil
}

// Filter narrows List. Zero values mean "any".
type Filter struct {
	Mode       *dotosu.GameMode
	Creator    string
	MinObjects int
	Limit      uint64
}

// List returns matching entries, most recently indexed first.
func (c *Catalog) List(ctx context.Context, f Filter) ([]Entry, error) {
	q := sq.Select(entryColumns...).From("beatmaps")
	if f.Mode != nil {
		q = q.Where(sq.Eq{"mode": int(*f.Mode)})
	}
	if f.Creator != "" {
		q = q.Where(sq.Eq{"creator": f.Creator})
	}
	if f.MinObjects > 0 {
		q = q.Where(sq.Expr("circles + sliders + spinners >= ?", f.MinObjects))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return c.query(ctx, q.OrderBy("indexed_at desc", "title", "version"))
}

func (c *Catalog) query(ctx context.Context, q sq.SelectBuilder) ([]Entry, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			mode      int
			indexedAt int64
		)
		if err := rows.Scan(
			&e.Checksum, &e.Path, &e.FormatVersion, &mode, &e.Title, &e.Artist, &e.Creator, &e.Version,
			&e.CircleSize, &e.OverallDifficulty, &e.ApproachRate, &e.HPDrainRate, &e.BPM,
			&e.Circles, &e.Sliders, &e.Spinners, &e.TimingPoints, &indexedAt,
		); err != nil {
			return nil, err
		}
		e.Mode = dotosu.GameMode(mode)
		e.IndexedAt = time.Unix(indexedAt, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
