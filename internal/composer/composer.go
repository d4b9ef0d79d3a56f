// Package composer turns fetched market data into a short natural-language
// answer, through an LLM when one is configured and a fixed template
// otherwise.
package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/newthinker/cryptodesk/internal/llm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// Headlines is how many news items go into an answer
	Headlines = 3

	// TemplateProvider names answers built without an LLM
	TemplateProvider = "template"

	noNews            = "No recent news available"
	defaultNewsSource = "CryptoPanic"
)

// Input is everything known about a query. Any field but Query may be absent.
type Input struct {
	Query      string
	Price      *core.PriceQuote
	Stats      *core.MarketStats
	News       []core.NewsItem
	Conversion *core.ConversionResult
}

// Response is a composed answer
type Response struct {
	Text      string `json:"text"`
	Generated bool   `json:"generated"`
	Provider  string `json:"provider"`
}

// Recorder counts compositions. metrics.Registry implements it.
type Recorder interface {
	RecordComposition(provider string, generated bool)
}

// Composer builds answers. A nil provider always uses the template.
type Composer struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
	logger      *zap.Logger
	recorder    Recorder
}

// Option configures a Composer
type Option func(*Composer)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Composer) {
		c.logger = logger
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Composer) {
		c.recorder = r
	}
}

// WithLimits overrides the generation limits (200 tokens, temperature 0.7)
func WithLimits(maxTokens int, temperature float64) Option {
	return func(c *Composer) {
		if maxTokens > 0 {
			c.maxTokens = maxTokens
		}
		if temperature >= 0 {
			c.temperature = temperature
		}
	}
}

// New creates a composer over provider, which may be nil.
func New(provider llm.Provider, opts ...Option) *Composer {
	c := &Composer{
		provider:    provider,
		maxTokens:   200,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Compose asks the LLM to summarize in. Any LLM failure, including an empty
// reply, falls back to the template; Compose itself never fails.
func (c *Composer) Compose(ctx context.Context, in Input) Response {
	if c.provider == nil {
		return c.fallback(in, TemplateProvider)
	}

	resp, err := c.provider.Chat(ctx, llm.UserPrompt(Prompt(in), c.maxTokens, c.temperature))
	if err != nil {
		c.logger.Warn("llm generation failed, using template",
			zap.String("provider", c.provider.Name()),
			zap.Error(core.WrapError(core.ErrLLMFailed, err)),
		)
		return c.fallback(in, c.provider.Name())
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		c.logger.Warn("llm returned empty content, using template",
			zap.String("provider", c.provider.Name()),
			zap.String("finish_reason", resp.FinishReason),
		)
		return c.fallback(in, c.provider.Name())
	}

	c.record(c.provider.Name(), true)
	return Response{Text: text, Generated: true, Provider: c.provider.Name()}
}

func (c *Composer) fallback(in Input, provider string) Response {
	c.record(provider, false)
	return Response{Text: Fallback(in), Generated: false, Provider: TemplateProvider}
}

func (c *Composer) record(provider string, generated bool) {
	if c.recorder != nil {
		c.recorder.RecordComposition(provider, generated)
	}
}

// Prompt builds the LLM prompt for in
func Prompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User question: %s\n\n", in.Query)

	b.WriteString("Market data:\n")
	fmt.Fprintf(&b, "Price: %s\n", priceLine(in.Price))
	fmt.Fprintf(&b, "Market Cap: %s\n", marketCapLine(in.Stats))
	fmt.Fprintf(&b, "Rank: %s\n", rankLine(in.Stats))
	if in.Conversion != nil {
		fmt.Fprintf(&b, "Conversion: %s\n", conversionLine(in.Conversion))
	}

	b.WriteString("\nLatest news:\n")
	b.WriteString(newsLines(in.News))

	b.WriteString("\nPlease provide a concise summary of this information.")
	return b.String()
}

// Fallback renders in with the fixed template used when no LLM answer is
// available. Absent values show as N/A.
func Fallback(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User question: %s\n\n", in.Query)
	fmt.Fprintf(&b, "Current price: %s\n", priceLine(in.Price))
	fmt.Fprintf(&b, "Market cap: %s\n", marketCapLine(in.Stats))
	fmt.Fprintf(&b, "Rank: %s\n", rankLine(in.Stats))
	if in.Conversion != nil {
		fmt.Fprintf(&b, "Conversion: %s\n", conversionLine(in.Conversion))
	}
	b.WriteString("\nLatest news:\n")
	b.WriteString(newsLines(in.News))
	return strings.TrimRight(b.String(), "\n")
}

func priceLine(p *core.PriceQuote) string {
	if p == nil {
		return notAvailable
	}
	return fmt.Sprintf("%s (%s)", formatPrice(p.Price), sourceLabel(p.Source))
}

func marketCapLine(s *core.MarketStats) string {
	if s == nil || s.MarketCap == nil {
		return notAvailable
	}
	return fmt.Sprintf("%s (%s)", formatMarketCap(*s.MarketCap), sourceLabel(s.Source))
}

func rankLine(s *core.MarketStats) string {
	if s == nil || s.Rank == nil {
		return notAvailable
	}
	return fmt.Sprintf("#%d", *s.Rank)
}

func conversionLine(r *core.ConversionResult) string {
	amount := group(decimal.NewFromFloat(r.Amount).String())
	return fmt.Sprintf("%s %s = %s %s", amount, r.Source, formatAmount(r.Value), r.Target)
}

func newsLines(items []core.NewsItem) string {
	if len(items) == 0 {
		return "- " + noNews + "\n"
	}
	if len(items) > Headlines {
		items = items[:Headlines]
	}
	var b strings.Builder
	for _, n := range items {
		title := strings.TrimSpace(n.Title)
		if title == "" {
			title = "No title"
		}
		source := n.Source
		if source == "" {
			source = defaultNewsSource
		}
		fmt.Fprintf(&b, "- %s (Source: %s)\n", title, source)
	}
	return b.String()
}
