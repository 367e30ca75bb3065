package classify

import (
	"math"
	"sort"
	"strings"

	"SignalFeed/internal/config"
	"SignalFeed/internal/domain"
)

// Result is the classification verdict for one item.
type Result struct {
	Class   domain.SignalClass
	Score   float64
	Matched []string
}

type weightedTerm struct {
	term       string // original configured spelling, reported in Matched
	normalized string
	weight     float64
}

// Classifier assigns signal classes from weighted keyword sets, a per-source
// engagement percentile curve, and a recency decay. It is deterministic:
// identical item content and configuration always produce identical output.
type Classifier struct {
	terms            map[domain.SignalClass][]weightedTerm
	curves           map[domain.SourceType][]config.CurvePoint
	engagementWeight float64
	windowDays       float64
	epsilon          float64
}

// classOrder is also the tie-break order: red beats yellow beats green when
// raw scores land within epsilon. The policy favors surfacing breakthroughs
// over false negatives.
var classOrder = []domain.SignalClass{domain.SignalRed, domain.SignalYellow, domain.SignalGreen}

// New builds a Classifier from an immutable configuration value.
func New(cfg config.ClassifierConfig) *Classifier {
	c := &Classifier{
		terms: map[domain.SignalClass][]weightedTerm{
			domain.SignalRed:    compileTerms(cfg.Keywords.Red),
			domain.SignalYellow: compileTerms(cfg.Keywords.Yellow),
			domain.SignalGreen:  compileTerms(cfg.Keywords.Green),
		},
		curves:           make(map[domain.SourceType][]config.CurvePoint, len(cfg.EngagementCurves)),
		engagementWeight: cfg.EngagementWeight,
		windowDays:       float64(cfg.RecencyWindowDays),
		epsilon:          cfg.TieBreakEpsilon,
	}

	for sourceType, points := range cfg.EngagementCurves {
		sorted := make([]config.CurvePoint, len(points))
		copy(sorted, points)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })
		c.curves[domain.SourceType(sourceType)] = sorted
	}

	return c
}

// Classify scores one canonical item. It never fails on well-formed items;
// malformed engagement is clamped to zero.
func (c *Classifier) Classify(item domain.Item) Result {
	text := normalizeText(item.Title + " " + item.Summary)

	raw := make(map[domain.SignalClass]float64, len(classOrder))
	var matched []string
	for _, class := range classOrder {
		score, hits := c.keywordScore(text, class)
		raw[class] = score
		matched = append(matched, hits...)
	}
	sort.Strings(matched)

	// Engagement amplifies every class equally; it never picks the class.
	engagement := c.engagementScore(item.SourceType, item.Engagement)
	contribution := engagement * c.engagementWeight
	allZero := true
	for _, class := range classOrder {
		if raw[class] != 0 {
			allZero = false
		}
	}
	if contribution != 0 {
		allZero = false
	}
	if allZero {
		return Result{Class: domain.SignalGreen, Score: 0, Matched: nil}
	}
	for _, class := range classOrder {
		raw[class] += contribution
	}

	winner := classOrder[0]
	for _, class := range classOrder[1:] {
		if raw[class] > raw[winner]+c.epsilon {
			winner = class
		}
	}

	// Recency sinks older items in ranked views without reclassifying them.
	score := raw[winner] * c.recencyDecay(item)

	return Result{Class: winner, Score: score, Matched: matched}
}

func (c *Classifier) keywordScore(text string, class domain.SignalClass) (float64, []string) {
	var (
		score float64
		hits  []string
	)
	for _, term := range c.terms[class] {
		// Each term counts at most once regardless of repeats.
		if containsTerm(text, term.normalized) {
			score += term.weight
			hits = append(hits, term.term)
		}
	}
	return score, hits
}

func (c *Classifier) engagementScore(sourceType domain.SourceType, engagement float64) float64 {
	if math.IsNaN(engagement) || engagement < 0 {
		engagement = 0
	}

	curve := c.curves[sourceType]
	if len(curve) == 0 {
		return 0
	}

	if engagement <= curve[0].Value {
		return clamp01(curve[0].Percentile)
	}
	last := curve[len(curve)-1]
	if engagement >= last.Value {
		return clamp01(last.Percentile)
	}

	for i := 1; i < len(curve); i++ {
		lo, hi := curve[i-1], curve[i]
		if engagement > hi.Value {
			continue
		}
		span := hi.Value - lo.Value
		if span == 0 {
			return clamp01(hi.Percentile)
		}
		frac := (engagement - lo.Value) / span
		return clamp01(lo.Percentile + frac*(hi.Percentile-lo.Percentile))
	}
	return clamp01(last.Percentile)
}

func (c *Classifier) recencyDecay(item domain.Item) float64 {
	if c.windowDays <= 0 {
		return 1
	}
	ageDays := item.IngestedAt.Sub(item.PublishedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Max(0, 1-ageDays/c.windowDays)
}

func compileTerms(weights map[string]float64) []weightedTerm {
	terms := make([]weightedTerm, 0, len(weights))
	for term, weight := range weights {
		terms = append(terms, weightedTerm{
			term:       term,
			normalized: normalizeText(term),
			weight:     weight,
		})
	}
	// Map iteration order is random; sort for deterministic accumulation.
	sort.Slice(terms, func(i, j int) bool { return terms[i].term < terms[j].term })
	return terms
}

// normalizeText lower-cases and strips punctuation so "state-of-the-art"
// in config matches "State-of-the-Art" and "state of the art" in titles.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsTerm(text, term string) bool {
	if term == "" || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+term+" ")
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
