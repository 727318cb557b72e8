package invoice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"invoicing/internal/logger"
)

// DefaultNumberPrefix is used when no prefix is configured.
const DefaultNumberPrefix = "INV"

// Number is a parsed invoice number of the form PREFIX-YYYY-NNNN.
type Number struct {
	Prefix   string
	Year     int
	Sequence int
}

// String formats the number with the sequence zero-padded to four digits.
// Sequences above 9999 keep all their digits.
func (n Number) String() string {
	return fmt.Sprintf("%s-%d-%04d", n.Prefix, n.Year, n.Sequence)
}

// ParseNumber splits an invoice number into its parts.
func ParseNumber(s string) (Number, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Number{}, &ParseError{Input: s, Reason: fmt.Sprintf("expected 3 parts, got %d", len(parts))}
	}
	if parts[0] == "" {
		return Number{}, &ParseError{Input: s, Reason: "missing prefix"}
	}
	year, err := parseDigits(parts[1])
	if err != nil {
		return Number{}, &ParseError{Input: s, Reason: "year: " + err.Error()}
	}
	seq, err := parseDigits(parts[2])
	if err != nil {
		return Number{}, &ParseError{Input: s, Reason: "sequence: " + err.Error()}
	}
	return Number{Prefix: parts[0], Year: year, Sequence: seq}, nil
}

// parseDigits rejects signs and whitespace, which strconv.Atoi would accept.
func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.Atoi(s)
}

// NextNumber returns the number that follows latest in the given year.
// A nil latest, or one from another year, starts the sequence at 1.
func NextNumber(prefix string, latest *Number, year int) Number {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	seq := 1
	if latest != nil && latest.Year == year {
		seq = latest.Sequence + 1
	}
	return Number{Prefix: prefix, Year: year, Sequence: seq}
}

// NumberGenerator derives the next invoice number from the most recently
// created invoice in a repository.
type NumberGenerator struct {
	repo   Repository
	prefix string
	log    zerolog.Logger
}

func NewNumberGenerator(repo Repository, prefix string) *NumberGenerator {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	return &NumberGenerator{
		repo:   repo,
		prefix: prefix,
		log:    logger.WithComponent("invoice-number"),
	}
}

// Next returns the next number for year. A malformed latest number is
// logged and the sequence restarts at 1. Repository failures are returned.
//
// Two concurrent callers can get the same number; the repository's
// uniqueness constraint rejects the second save.
func (g *NumberGenerator) Next(ctx context.Context, year int) (string, error) {
	const op = "invoice.NumberGenerator.Next"

	latest, err := g.repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return NextNumber(g.prefix, nil, year).String(), nil
		}
		return "", fmt.Errorf("%s: load latest invoice: %w", op, err)
	}

	parsed, err := ParseNumber(latest.Number)
	if err != nil {
		g.log.Warn().
			Err(err).
			Str("latest_number", latest.Number).
			Int64("latest_id", latest.ID).
			Msg("Could not parse latest invoice number, restarting sequence")
		return NextNumber(g.prefix, nil, year).String(), nil
	}

	next := NextNumber(g.prefix, &parsed, year)
	g.log.Debug().
		Str("latest_number", latest.Number).
		Str("next_number", next.String()).
		Msg("Generated invoice number")
	return next.String(), nil
}
