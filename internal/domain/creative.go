package domain

import (
	"strings"
	"time"
)

// CreativeTraits is the pre-spend description of an ad creative. It is
// immutable once the ad is registered and never carries spend metrics.
type CreativeTraits struct {
	HookType         string `json:"hook_type,omitempty"`
	HookDelaySeconds int    `json:"hook_delay_seconds,omitempty"`
	EditingStyle     string `json:"editing_style,omitempty"`
	SceneVelocity    string `json:"scene_velocity,omitempty"`
	ColorGrading     string `json:"color_grading,omitempty"`
	OpeningShot      string `json:"opening_shot,omitempty"`
	TalentType       string `json:"talent_type,omitempty"`
	Tone             string `json:"tone,omitempty"`
	PacingStyle      string `json:"pacing_style,omitempty"`
	SoundDesign      string `json:"sound_design,omitempty"`
	MusicType        string `json:"music_type,omitempty"`

	Platform         string `json:"platform,omitempty"`
	AspectRatio      string `json:"aspect_ratio,omitempty"`
	DurationSeconds  int    `json:"duration_seconds,omitempty"`
	TextOverlayStyle string `json:"text_overlay_style,omitempty"`

	CTAStrength     string `json:"cta_strength,omitempty"`
	CTAPlacement    string `json:"cta_placement,omitempty"`
	OfferType       string `json:"offer_type,omitempty"`
	AudienceType    string `json:"audience_type,omitempty"`
	ObjectiveType   string `json:"objective_type,omitempty"`
	ContentCategory string `json:"content_category,omitempty"`
	BudgetTier      string `json:"budget_tier,omitempty"`

	IsUGC          bool `json:"ugc,omitempty"`
	HasSubtitles   bool `json:"subtitles,omitempty"`
	HasVoiceover   bool `json:"voiceover,omitempty"`
	HasMusic       bool `json:"music,omitempty"`
	HasTextOverlay bool `json:"text_overlay,omitempty"`
	HasHumanFace   bool `json:"human_face,omitempty"`
	HasProductShot bool `json:"product_shot,omitempty"`
	HasPriceShown  bool `json:"price_shown,omitempty"`
	HasDiscount    bool `json:"discount,omitempty"`
	HasSocialProof bool `json:"social_proof,omitempty"`
	HasTrustBadge  bool `json:"trust_badge,omitempty"`
	HasBrandLogo   bool `json:"brand_logo,omitempty"`
	IsSeasonal     bool `json:"seasonal,omitempty"`
	HasUrgency     bool `json:"urgency,omitempty"`
	HasBeforeAfter bool `json:"before_after,omitempty"`
	HasCTAButton   bool `json:"cta_button,omitempty"`
}

// FeatureNames flattens the traits into scoreable feature names. Categorical
// values become "<attribute>_<value>" and set booleans contribute the bare
// attribute name. Absent values contribute nothing.
func (t CreativeTraits) FeatureNames() []string {
	names := make([]string, 0, 32)
	appendValue := func(attribute, value string) {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			names = append(names, attribute+"_"+strings.ReplaceAll(value, " ", "_"))
		}
	}
	appendValue("hook_type", t.HookType)
	appendValue("editing_style", t.EditingStyle)
	appendValue("scene_velocity", t.SceneVelocity)
	appendValue("color_grading", t.ColorGrading)
	appendValue("opening_shot", t.OpeningShot)
	appendValue("talent_type", t.TalentType)
	appendValue("tone", t.Tone)
	appendValue("pacing_style", t.PacingStyle)
	appendValue("sound_design", t.SoundDesign)
	appendValue("music_type", t.MusicType)
	appendValue("platform", t.Platform)
	appendValue("aspect_ratio", aspectToken(t.AspectRatio))
	appendValue("text_overlay_style", t.TextOverlayStyle)
	appendValue("cta_strength", t.CTAStrength)
	appendValue("cta_placement", t.CTAPlacement)
	appendValue("offer_type", t.OfferType)
	appendValue("audience_type", t.AudienceType)
	appendValue("objective_type", t.ObjectiveType)
	appendValue("content_category", t.ContentCategory)
	appendValue("budget_tier", t.BudgetTier)

	appendBool := func(attribute string, set bool) {
		if set {
			names = append(names, attribute)
		}
	}
	appendBool("ugc", t.IsUGC)
	appendBool("subtitles", t.HasSubtitles)
	appendBool("voiceover", t.HasVoiceover)
	appendBool("music", t.HasMusic)
	appendBool("text_overlay", t.HasTextOverlay)
	appendBool("human_face", t.HasHumanFace)
	appendBool("product_shot", t.HasProductShot)
	appendBool("price_shown", t.HasPriceShown)
	appendBool("discount", t.HasDiscount)
	appendBool("social_proof", t.HasSocialProof)
	appendBool("trust_badge", t.HasTrustBadge)
	appendBool("brand_logo", t.HasBrandLogo)
	appendBool("seasonal", t.IsSeasonal)
	appendBool("urgency", t.HasUrgency)
	appendBool("before_after", t.HasBeforeAfter)
	appendBool("cta_button", t.HasCTAButton)
	return names
}

// aspectToken keeps ratio values usable inside feature names ("9:16" -> "9x16").
func aspectToken(ratio string) string {
	return strings.ReplaceAll(strings.TrimSpace(ratio), ":", "x")
}

// OutcomeResult is the post-spend performance record for one ad.
type OutcomeResult struct {
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	CTR            float64 `json:"ctr"`
	ConversionRate float64 `json:"conversion_rate"`
	ROAS           float64 `json:"roas"`
	Spend          float64 `json:"spend"`
	SuccessScore   int     `json:"success_score"`
	Platform       string  `json:"platform"`
}

// AdRecord is the stored creative plus its latest engine score.
type AdRecord struct {
	AdID         string         `json:"ad_id"`
	Traits       CreativeTraits `json:"traits"`
	CurrentScore int            `json:"current_score"`
	Outcome      *OutcomeResult `json:"outcome,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
