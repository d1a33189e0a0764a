package snapshot

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/balance-history/internal/models"
	"github.com/smartdevs17/balance-history/pkg/utils"
)

// Assembler resolves chart requests into per-token snapshot series. Tokens
// are independent (each merge touches a disjoint record chain), so they are
// fanned out on a shared worker pool and joined before the response is
// assembled.
type Assembler struct {
	pool   pond.Pool
	logger *logrus.Entry
}

// NewAssembler creates an assembler backed by a worker pool of the given
// size.
func NewAssembler(workers int) *Assembler {
	if workers <= 0 {
		workers = 4
	}
	return &Assembler{
		pool:   pond.NewPool(workers),
		logger: utils.ComponentLogger("snapshot"),
	}
}

// Stop releases the worker pool. Pending tasks complete first.
func (a *Assembler) Stop() {
	a.pool.StopAndWait()
}

// Assemble resolves one snapshot series per token at the given sample
// instants. An explicit tokenIDs list overrides the default token set (every
// token observed in the loaded records); the two are never merged. Tokens
// with no records still get a series, all zero at every instant.
func (a *Assembler) Assemble(
	ctx context.Context,
	records []*models.BalanceChangeRecord,
	tokenIDs []string,
	instants []time.Time,
) (map[string][]models.Snapshot, error) {

	grouped := models.GroupByToken(records)

	tokens := tokenIDs
	if len(tokens) == 0 {
		tokens = make([]string, 0, len(grouped))
		for tokenID := range grouped {
			tokens = append(tokens, tokenID)
		}
		sort.Strings(tokens)
	}

	type tokenSeries struct {
		tokenID   string
		snapshots []models.Snapshot
	}
	results := make([]tokenSeries, len(tokens))

	group := a.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i, tokenID := range tokens {
		i, tokenID := i, tokenID
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				return
			}
			results[i] = tokenSeries{
				tokenID:   tokenID,
				snapshots: Resolve(grouped[tokenID], instants),
			}
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, pond.ErrGroupStopped) {
		a.logger.WithError(err).Warn("parallel snapshot resolution interrupted")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	series := make(map[string][]models.Snapshot, len(results))
	for _, result := range results {
		series[result.tokenID] = result.snapshots
	}

	return series, nil
}
