package upstream

// KPISummary is the headline summary returned by /api/kpis. The endpoint
// answers with an empty object when there is no data for the range; Present
// reports whether any field was sent.
type KPISummary struct {
	TotalFlow    *int64  `json:"total_afluencia"`
	DailyAverage *int64  `json:"promedio_diario"`
	TopStation   *string `json:"estacion_top"`
	TopLine      *string `json:"linea_top"`
}

// Present reports whether the summary carries any data.
func (k *KPISummary) Present() bool {
	if k == nil {
		return false
	}
	return k.TotalFlow != nil || k.DailyAverage != nil || k.TopStation != nil || k.TopLine != nil
}

// TrendPoint is one time bucket of the trend series.
type TrendPoint struct {
	Date string  `json:"fecha" validate:"required"`
	Flow float64 `json:"afluencia" validate:"gte=0"`
}

// LineFlow is one entry of the line ranking.
type LineFlow struct {
	Line string  `json:"linea" validate:"required"`
	Flow float64 `json:"afluencia" validate:"gte=0"`
}

// kpiShape is the validation view of a present summary: every field is
// required once the server sends anything at all.
type kpiShape struct {
	TotalFlow    *int64  `validate:"required"`
	DailyAverage *int64  `validate:"required"`
	TopStation   *string `validate:"required"`
	TopLine      *string `validate:"required"`
}
