package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-bed/internal/bed"
)

// WriteFeatures batch-inserts features and their exons using the Appender API.
// Feature ids continue from the largest id already stored.
func (s *Store) WriteFeatures(source string, features []*bed.Feature) error {
	if len(features) == 0 {
		return nil
	}

	var nextID int64
	if err := s.db.QueryRow("SELECT COALESCE(MAX(id), 0) FROM features").Scan(&nextID); err != nil {
		return fmt.Errorf("query max feature id: %w", err)
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var featApp, exonApp *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		featApp, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "features")
		if err != nil {
			return err
		}
		exonApp, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "exons")
		if err != nil {
			featApp.Close()
		}
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer featApp.Close()
	defer exonApp.Close()

	for _, f := range features {
		nextID++
		if err := featApp.AppendRow(
			nextID, source, f.Contig, f.Start, f.End,
			nullString(f.Name, f.HasName()), nullFloat(f.Score), nullString(f.Strand.String(), f.HasStrand()),
			nullInt(f.ThickStart, f.Exons != nil), nullInt(f.ThickEnd, f.Exons != nil),
			formatColor(f.Color), f.Kind().String(), int32(f.Columns),
		); err != nil {
			return fmt.Errorf("append feature: %w", err)
		}
		for _, e := range f.Exons {
			if err := exonApp.AppendRow(
				nextID, int32(e.Number), e.Start, e.End,
				e.CDStart, e.CDEnd, e.CodingLength, int32(e.Frame),
			); err != nil {
				return fmt.Errorf("append exon: %w", err)
			}
		}
	}

	if err := featApp.Flush(); err != nil {
		return fmt.Errorf("flush features: %w", err)
	}
	return exonApp.Flush()
}

// FeatureCount returns the number of stored features.
func (s *Store) FeatureCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM features").Scan(&n); err != nil {
		return 0, fmt.Errorf("count features: %w", err)
	}
	return n, nil
}

// ClearFeatures removes all stored features, exons and source records.
func (s *Store) ClearFeatures() error {
	for _, table := range []string{"exons", "features", "sources"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// QueryRegion returns the stored features on contig overlapping the closed
// 1-based range [start, end], ordered by start, end and insertion order.
func (s *Store) QueryRegion(contig string, start, end int64) ([]*bed.Feature, error) {
	rows, err := s.db.Query(`SELECT
		id, contig, start_pos, end_pos, name, score, strand,
		thick_start, thick_end, color, num_columns
		FROM features
		WHERE contig=? AND start_pos<=? AND end_pos>=?
		ORDER BY start_pos, end_pos, id`,
		contig, end, start)
	if err != nil {
		return nil, fmt.Errorf("query region: %w", err)
	}
	defer rows.Close()

	var features []*bed.Feature
	byID := make(map[int64]*bed.Feature)
	var ids []string
	for rows.Next() {
		var (
			id                   int64
			f                    bed.Feature
			name, strand, color  sql.NullString
			score                sql.NullFloat64
			thickStart, thickEnd sql.NullInt64
			columns              int32
		)
		if err := rows.Scan(
			&id, &f.Contig, &f.Start, &f.End, &name, &score, &strand,
			&thickStart, &thickEnd, &color, &columns,
		); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}

		f.Name = name.String
		f.Score = math.NaN()
		if score.Valid {
			f.Score = score.Float64
		}
		f.Strand = parseStrand(strand.String)
		f.Color = parseColor(color.String)
		f.ThickStart = thickStart.Int64
		f.ThickEnd = thickEnd.Int64
		f.Columns = int(columns)

		fp := &f
		features = append(features, fp)
		byID[id] = fp
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate features: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}
	if err := s.loadExons(byID, ids); err != nil {
		return nil, err
	}
	return features, nil
}

// loadExons attaches stored exons to the features in byID.
func (s *Store) loadExons(byID map[int64]*bed.Feature, ids []string) error {
	rows, err := s.db.Query(`SELECT
		feature_id, exon_number, start_pos, end_pos, cd_start, cd_end, coding_length, frame
		FROM exons
		WHERE feature_id IN (` + strings.Join(ids, ",") + `)
		ORDER BY feature_id, start_pos`)
	if err != nil {
		return fmt.Errorf("query exons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var number, frame int32
		var e bed.Exon
		if err := rows.Scan(&id, &number, &e.Start, &e.End, &e.CDStart, &e.CDEnd, &e.CodingLength, &frame); err != nil {
			return fmt.Errorf("scan exon: %w", err)
		}
		e.Number = int(number)
		e.Frame = int(frame)
		if f := byID[id]; f != nil {
			f.Exons = append(f.Exons, e)
		}
	}
	return rows.Err()
}

func nullString(s string, ok bool) any {
	if !ok {
		return nil
	}
	return s
}

func nullInt(v int64, ok bool) any {
	if !ok {
		return nil
	}
	return v
}

func nullFloat(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func formatColor(c bed.Color) any {
	if !c.Set {
		return nil
	}
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

func parseColor(s string) bed.Color {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return bed.Color{}
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return bed.Color{}
		}
		rgb[i] = uint8(v)
	}
	return bed.Color{R: rgb[0], G: rgb[1], B: rgb[2], Set: true}
}

func parseStrand(s string) bed.Strand {
	switch s {
	case "+":
		return bed.StrandPositive
	case "-":
		return bed.StrandNegative
	default:
		return bed.StrandNone
	}
}
