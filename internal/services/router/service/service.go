// Package service implements the deterministic router: vocabulary and keyword
// extraction first, a small language model only for what remains unresolved
package service

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"flatsense/internal/adapters/llm"
	"flatsense/internal/core/lexicon"
	"flatsense/internal/platform/logger"
	marketdomain "flatsense/internal/services/market/domain"
	"flatsense/internal/services/router/domain"
	teldomain "flatsense/internal/services/telemetry/domain"
)

// Config for the router
type Config struct {
	// MaxDistance bounds the fuzzy vocabulary match in edits
	MaxDistance int

	// LLMTimeout caps a single fallback generation call
	LLMTimeout time.Duration
}

// Service defines the router contract
type Service interface {
	domain.RouterPort
}

// Svc implements the router
// the vocabulary is loaded from the store once and reused for the process
// lifetime; Route is safe for concurrent use after that
type Svc struct {
	market marketdomain.ReaderPort
	rec    teldomain.RecorderPort
	gen    llm.Generator
	cfg    Config
	log    *logger.Logger

	mu     sync.Mutex
	loaded bool
	towns  *lexicon.Lexicon
	flats  *lexicon.Lexicon
}

// New constructs the router. gen may be nil, which disables the
// language-model fallback entirely
func New(market marketdomain.ReaderPort, rec teldomain.RecorderPort, gen llm.Generator, cfg Config) *Svc {
	if market == nil {
		panic("router.Service requires a market reader")
	}
	if rec == nil {
		panic("router.Service requires a telemetry recorder")
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = 2
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 5 * time.Second
	}
	return &Svc{market: market, rec: rec, gen: gen, cfg: cfg, log: logger.Named("router")}
}

// monthRE accepts YYYY-MM with an optional day suffix, which is dropped
var monthRE = regexp.MustCompile(`\b((?:19|20)\d{2}-(?:0[1-9]|1[0-2]))(?:-\d{2})?\b`)

// intent keyword signals, compared against folded text
var (
	scarcityTerms = []string{"low supply", "limited", "scarce", "scarcity", "fewest", "launches"}
	priceTerms    = []string{"price", "prices", "cost", "estimate", "worth", "how much", "afford", "band"}
)

// Route implements domain.RouterPort
func (s *Svc) Route(ctx context.Context, text string) (domain.Route, error) {
	if err := s.loadVocab(ctx); err != nil {
		return domain.Route{}, err
	}

	r, fuzzy, usedLLM := s.resolve(ctx, text)

	// required fields gate the intent: price estimates cannot run without a
	// town and flat type, and an unsignalled query stays unknown
	if r.Intent == domain.IntentPriceEstimates && (r.Town == "" || r.FlatType == "") {
		r.Intent = domain.IntentUnknown
	}

	switch {
	case r.Intent == domain.IntentUnknown:
		r.Confidence = 0
	case usedLLM:
		r.Confidence = 0.5
	case fuzzy:
		r.Confidence = 0.8
	default:
		r.Confidence = 1.0
	}

	s.rec.Record(ctx, teldomain.RouterEvent(
		text, r.Town, r.FlatType, r.Month, string(r.Intent), r.Intent != domain.IntentUnknown,
	))
	return r, nil
}

func (s *Svc) resolve(ctx context.Context, text string) (r domain.Route, fuzzy, usedLLM bool) {
	town, townExact, townOK := s.towns.Match(text, s.cfg.MaxDistance)
	flat, flatExact, flatOK := s.flats.Match(text, s.cfg.MaxDistance)
	if townOK {
		r.Town = town
	}
	if flatOK {
		r.FlatType = flat
	}
	if m := monthRE.FindStringSubmatch(text); m != nil {
		r.Month = m[1]
	}
	r.Intent = keywordIntent(text)
	fuzzy = (townOK && !townExact) || (flatOK && !flatExact)

	if s.gen == nil {
		return r, fuzzy, false
	}
	if r.Intent != domain.IntentUnknown && r.Town != "" && r.FlatType != "" && r.Month != "" {
		return r, fuzzy, false
	}
	return s.llmFill(ctx, text, r, fuzzy)
}

// keywordIntent chooses the tool from deterministic signals in folded text
func keywordIntent(text string) domain.Intent {
	ft := lexicon.Fold(text)
	for _, t := range scarcityTerms {
		if strings.Contains(ft, t) {
			return domain.IntentLowSupply
		}
	}
	for _, t := range priceTerms {
		if strings.Contains(ft, t) {
			return domain.IntentPriceEstimates
		}
	}
	return domain.IntentUnknown
}

const fillPrompt = `You extract housing query fields. Return STRICT JSON only, no prose.
Fields: "town" (HDB town name), "flat_type" (e.g. "4 ROOM"), "month" ("YYYY-MM"), "intent" ("price_estimates" or "low_supply").
Only include fields you are sure of. Example: {"town":"ANG MO KIO","flat_type":"4 ROOM","month":"2024-05","intent":"price_estimates"}
Query: `

// llmFill asks the language model for the fields still unresolved and merges
// its answer in. Deterministically resolved fields are never overwritten, and
// model output is only accepted where it survives the same validation as the
// deterministic path. Any failure leaves the route as it was
func (s *Svc) llmFill(ctx context.Context, text string, r domain.Route, fuzzy bool) (domain.Route, bool, bool) {
	lctx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	out, err := s.gen.Generate(lctx, fillPrompt+text+"\nJSON:")
	if err != nil {
		s.log.Debug().Err(err).Msg("llm fallback unavailable")
		return r, fuzzy, false
	}

	var got struct {
		Town     string `json:"town"`
		FlatType string `json:"flat_type"`
		Month    string `json:"month"`
		Intent   string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(extractJSON(out)), &got); err != nil {
		s.log.Debug().Err(err).Msg("llm fallback output unparseable")
		return r, fuzzy, false
	}

	used := false
	if r.Town == "" && got.Town != "" {
		// the model's guess must still be a known town
		if t, exact, ok := s.towns.Match(got.Town, 0); ok && exact {
			r.Town, used = t, true
		}
	}
	if r.FlatType == "" && got.FlatType != "" {
		if f, exact, ok := s.flats.Match(got.FlatType, 0); ok && exact {
			r.FlatType, used = f, true
		}
	}
	if r.Month == "" {
		if m := monthRE.FindStringSubmatch(got.Month); m != nil {
			r.Month, used = m[1], true
		}
	}
	if r.Intent == domain.IntentUnknown {
		switch domain.Intent(got.Intent) {
		case domain.IntentPriceEstimates, domain.IntentLowSupply:
			r.Intent, used = domain.Intent(got.Intent), true
		}
	}
	return r, fuzzy, used
}

// extractJSON trims model chatter around the first top-level JSON object
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// loadVocab pulls the distinct towns and flat types once per process
// a failed load is retried on the next call rather than cached
func (s *Svc) loadVocab(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	towns, flats, err := s.market.Vocabulary(ctx)
	if err != nil {
		return err
	}
	s.towns = lexicon.New(towns)
	s.flats = lexicon.New(flats)
	s.loaded = true
	s.log.Info().Int("towns", s.towns.Terms()).Int("flat_types", s.flats.Terms()).Msg("router vocabulary loaded")
	return nil
}
