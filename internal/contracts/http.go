package contracts

import "encoding/json"

type PredictRequest struct {
	Traits map[string]any `json:"traits"`
}

type OutcomeRequest struct {
	PredictionID   string  `json:"prediction_id,omitempty"`
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	CTR            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversion_rate"`
	ROAS           float64 `json:"roas"`
	Spend          float64 `json:"spend"`
	SuccessScore   *int    `json:"success_score,omitempty"`
	Platform       string  `json:"platform"`
}

type SnapshotRequest struct {
	Name string `json:"name"`
}

type UndoRequest struct {
	EntryID string `json:"entry_id,omitempty"`
}

type RedoRequest struct {
	EntryID string `json:"entry_id,omitempty"`
}

type WeightModeRequest struct {
	Mode string `json:"mode"`
}

type ValidateFeaturesRequest struct {
	Input map[string]any `json:"input"`
}

type RecalculateRequest struct {
	Trigger string `json:"trigger,omitempty"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// OracleSuggestRequest is the wire shape sent to the feature oracle.
type OracleSuggestRequest struct {
	AdContent json.RawMessage `json:"ad_content"`
	AdResults json.RawMessage `json:"ad_results"`
	Reason    string          `json:"reason"`
}
