package engine

// #region imports
import (
	"sync"

	"github.com/danielpatrickdp/fusion-nav/go-engine/internal/recal"
)

// #endregion

// #region report

// HealthGrade buckets recent perception quality.
type HealthGrade string

const (
	HealthExcellent HealthGrade = "EXCELLENT"
	HealthGood      HealthGrade = "GOOD"
	HealthFair      HealthGrade = "FAIR"
	HealthPoor      HealthGrade = "POOR"
	HealthUnknown   HealthGrade = "UNKNOWN"
)

// HealthReport summarizes the last few perception passes: how many
// signals came back valid and how much recalibration they needed.
type HealthReport struct {
	Grade      HealthGrade
	Samples    int
	ValidRatio float64
	AvgRecals  float64
}

// Health reports perception quality over the recent window.
func (e *Engine) Health() HealthReport {
	return e.health.report()
}

// #endregion report

// #region ring

type healthSample struct {
	valid  int
	total  int
	recals int
}

// healthRing keeps the last size perception passes.
type healthRing struct {
	mu      sync.Mutex
	samples []healthSample
	size    int
}

func newHealthRing(size int) *healthRing {
	return &healthRing{size: size}
}

func (r *healthRing) record(obs recal.Observation) {
	valid := 0
	for _, res := range obs.Results {
		if res.Valid {
			valid++
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, healthSample{valid: valid, total: len(obs.Results), recals: obs.Recals})
	if len(r.samples) > r.size {
		r.samples = r.samples[1:]
	}
}

func (r *healthRing) report() HealthReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) == 0 {
		return HealthReport{Grade: HealthUnknown}
	}
	var valid, total, recals int
	for _, s := range r.samples {
		valid += s.valid
		total += s.total
		recals += s.recals
	}
	ratio := 0.0
	if total > 0 {
		ratio = float64(valid) / float64(total)
	}
	report := HealthReport{
		Samples:    len(r.samples),
		ValidRatio: ratio,
		AvgRecals:  float64(recals) / float64(len(r.samples)),
	}
	switch {
	case ratio >= 0.9:
		report.Grade = HealthExcellent
	case ratio >= 0.7:
		report.Grade = HealthGood
	case ratio >= 0.4:
		report.Grade = HealthFair
	default:
		report.Grade = HealthPoor
	}
	return report
}

// #endregion ring
