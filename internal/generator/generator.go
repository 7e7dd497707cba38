package generator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"blip_sim/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Rand is the random source the generator samples from.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// BaseRate supplies an optional live rate. A zero value means "use the pool".
type BaseRate interface {
	GetRate() decimal.Decimal
}

// Generator builds mock orders from fixed pools.
type Generator struct {
	rng      Rand
	printer  *message.Printer
	rates    BaseRate
	currency string
}

// Option configures a Generator.
type Option func(*Generator)

// WithLocale sets the locale used for amount grouping (e.g. "en-US", "de-DE").
func WithLocale(locale string) Option {
	return func(g *Generator) {
		tag, err := language.Parse(locale)
		if err != nil {
			tag = language.AmericanEnglish
		}
		g.printer = message.NewPrinter(tag)
	}
}

// WithBaseRate makes generated rates jitter around a live rate.
func WithBaseRate(rates BaseRate) Option {
	return func(g *Generator) {
		g.rates = rates
	}
}

// WithCurrency sets the counter currency label.
func WithCurrency(currency string) Option {
	return func(g *Generator) {
		if currency != "" {
			g.currency = currency
		}
	}
}

// New creates a Generator drawing from rng.
func New(rng Rand, opts ...Option) *Generator {
	g := &Generator{
		rng:      rng,
		printer:  message.NewPrinter(language.AmericanEnglish),
		currency: "AED",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a fresh New-stage order. now only feeds the id prefix.
func (g *Generator) Generate(now time.Time) domain.Order {
	amount := minAmount + g.rng.IntN(maxAmount-minAmount+1)
	rate := g.sampleRate()

	return domain.Order{
		ID:           g.newID(now),
		Amount:       g.formatAmount(amount),
		Rate:         g.formatRate(rate),
		Fiat:         g.formatFiat(decimal.NewFromInt(int64(amount)).Mul(rate)),
		UserName:     pick(g.rng, userNames),
		AvatarGlyph:  pick(g.rng, avatarGlyphs),
		CountryGlyph: pick(g.rng, countryGlyphs),
		Description:  pick(g.rng, descriptions),
		Priority:     pick(g.rng, priorities),
		Time:         domain.TimeJustNow,
		Stage:        domain.StageNew,
	}
}

// SeedOrders returns the two orders present when the dashboard mounts.
// The first element is rendered on top.
func (g *Generator) SeedOrders() []domain.Order {
	seeds := []struct {
		id, user, avatar, country, rate, desc, prio, time string
		amount                                            int64
	}{
		{"seed-1", "Ahmed K.", "👨‍💼", "🇦🇪", "3.6725", "Bank transfer", "High", "2 min ago", 500},
		{"seed-2", "Sarah M.", "👩‍💼", "🇬🇧", "3.6730", "Cash pickup", "Medium", "5 min ago", 1200},
	}

	out := make([]domain.Order, 0, len(seeds))
	for _, s := range seeds {
		rate := decimal.RequireFromString(s.rate)
		out = append(out, domain.Order{
			ID:           s.id,
			Amount:       g.formatAmount(int(s.amount)),
			Rate:         g.formatRate(rate),
			Fiat:         g.formatFiat(decimal.NewFromInt(s.amount).Mul(rate)),
			UserName:     s.user,
			AvatarGlyph:  s.avatar,
			CountryGlyph: s.country,
			Description:  s.desc,
			Priority:     s.prio,
			Time:         s.time,
			Stage:        domain.StageNew,
		})
	}
	return out
}

// sampleRate jitters the live rate by up to +/-0.1% when one is known,
// otherwise draws from the static pool.
func (g *Generator) sampleRate() decimal.Decimal {
	if g.rates != nil {
		if base := g.rates.GetRate(); base.IsPositive() {
			bps := int64(g.rng.IntN(21) - 10)
			factor := decimal.NewFromInt(10000 + bps).Div(decimal.NewFromInt(10000))
			return base.Mul(factor).Round(4)
		}
	}
	return decimal.RequireFromString(pick(g.rng, ratePool))
}

func (g *Generator) newID(now time.Time) string {
	suffix := strconv.FormatInt(int64(g.rng.IntN(idSuffixSpace)), 36)
	if pad := idSuffixLen - len(suffix); pad > 0 {
		suffix = strings.Repeat("0", pad) + suffix
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

func (g *Generator) formatAmount(amount int) string {
	return g.printer.Sprintf("%d %s", amount, amountAsset)
}

func (g *Generator) formatRate(rate decimal.Decimal) string {
	return rate.StringFixed(4) + " " + g.currency
}

// formatFiat renders total with two decimals straight from the decimal value.
// Only the integer part goes through the printer, for locale grouping.
func (g *Generator) formatFiat(total decimal.Decimal) string {
	rounded := total.Round(2)
	whole := g.printer.Sprintf("%d", rounded.Abs().IntPart())
	_, frac, _ := strings.Cut(rounded.StringFixed(2), ".")
	if rounded.IsNegative() {
		whole = "-" + whole
	}
	return whole + decimalSeparator(g.printer) + frac + " " + g.currency
}

// decimalSeparator returns the locale's decimal mark, e.g. "." or ",".
func decimalSeparator(p *message.Printer) string {
	s := p.Sprint(number.Decimal(1.5, number.Scale(1)))
	if sep := strings.TrimSuffix(strings.TrimPrefix(s, "1"), "5"); sep != "" {
		return sep
	}
	return "."
}

func pick(rng Rand, pool []string) string {
	return pool[rng.IntN(len(pool))]
}
