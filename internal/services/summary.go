package services

import (
	"time"

	"github.com/shopspring/decimal"

	"gnlreports/internal/period"
	"gnlreports/internal/schema"
	"gnlreports/pkg/contracts/domain"
)

// averagePlaces is the rounding applied to averages.
const averagePlaces = 4

// Summarize aggregates fields over the filtered records. Sums are computed
// in decimal so daily volumes add up without float drift; only present
// measurements contribute.
func Summarize(result period.Result, fields []string, mapping *schema.Mapping, now time.Time) domain.PeriodSummary {
	s := domain.PeriodSummary{
		Mode:        string(result.Window.Mode),
		Start:       result.Window.Start,
		End:         result.Window.End,
		Count:       result.Count,
		Fields:      make([]domain.FieldSummary, 0, len(fields)),
		GeneratedAt: now,
	}

	for _, name := range fields {
		fs := domain.FieldSummary{Field: name, Label: name}
		if f, ok := mapping.Field(name); ok {
			fs.Label, fs.Unit = f.Label, f.Unit
		}

		total := decimal.Zero
		var min, max decimal.Decimal
		for _, r := range result.Records {
			m := r.Value(name)
			if !m.Present {
				fs.Missing++
				continue
			}
			v := decimal.NewFromFloat(m.Value)
			if fs.Present == 0 || v.LessThan(min) {
				min = v
			}
			if fs.Present == 0 || v.GreaterThan(max) {
				max = v
			}
			total = total.Add(v)
			fs.Present++
		}

		if fs.Present > 0 {
			fs.Total = total.InexactFloat64()
			fs.Average = total.DivRound(decimal.NewFromInt(int64(fs.Present)), averagePlaces).InexactFloat64()
			fs.Min = min.InexactFloat64()
			fs.Max = max.InexactFloat64()
		}
		s.Fields = append(s.Fields, fs)
	}
	return s
}
