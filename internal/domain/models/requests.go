package models

// InsightsRequest binds GET /api/market-insights/:crop.
type InsightsRequest struct {
	Crop     string `param:"crop" validate:"required,max=64"`
	State    string `query:"state" validate:"max=64"`
	District string `query:"district" validate:"max=64"`
	Market   string `query:"market" validate:"max=64"`
	Season   string `query:"season" validate:"max=16"`
}

// HistoryRequest binds GET /api/agmarket/history.
type HistoryRequest struct {
	Commodity string `query:"commodity" validate:"required,max=64"`
	State     string `query:"state" validate:"max=64"`
	District  string `query:"district" validate:"max=64"`
	Market    string `query:"market" validate:"max=64"`
	Days      int    `query:"days" default:"30" validate:"min=1,max=365"`
}

type LiveRequest struct {
	Commodity string `query:"commodity" validate:"required,max=64"`
	Source    string `query:"source" default:"api" validate:"oneof=api local"`
}

type SeasonRequest struct {
	Season string `param:"season" validate:"required,max=16"`
}
