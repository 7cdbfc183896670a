package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/platform/cache"
	"github.com/riskibarqy/matchup-markets/internal/platform/knn"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
)

// referenceDistance converts standardized distance to a percentage on a fixed
// absolute scale. A per-query relative max would make a candidate's score
// depend on who else was nearby, so scores could not be compared across
// queries or across k.
const referenceDistance = 2.0

const indexCachePrefix = "similarity-index:"

type MappingDirection string

const (
	MappingDirect  MappingDirection = "direct"
	MappingFlipped MappingDirection = "flipped"
)

// SimilarGame is one ranked candidate. Mapping says whether the candidate's
// home/away assignment should be read directly or flipped relative to the
// target; it is advisory metadata and never alters the score.
type SimilarGame struct {
	GameID  string
	Score   float64
	Mapping MappingDirection
	Game    game.Game
}

type SimilarityResult struct {
	Sport     string
	TargetID  string
	Symmetric bool
	Games     []SimilarGame
}

// builtIndex is one fitted (sport, variant) population. Immutable once built;
// invalidation replaces it wholesale.
type builtIndex struct {
	spec         game.FeatureSpec
	symmetric    bool
	standardizer *knn.Standardizer
	index        *knn.Index
	games        []game.Game
	rawVectors   [][]float64
}

// SimilarityService answers "which past matchups most resemble this one".
// Indexes are built lazily per (sport, variant), cached until ClearCache, and
// always reflect exactly the store contents at the moment of the last build.
type SimilarityService struct {
	games  game.Repository
	store  *cache.Store
	logger *logging.Logger
	builds atomic.Int64
}

func NewSimilarityService(games game.Repository, logger *logging.Logger) *SimilarityService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimilarityService{
		games:  games,
		store:  cache.NewStore(0),
		logger: logger,
	}
}

// ClearCache drops every built index. Ingestion calls this after writing new
// games; there is no other invalidation path.
func (s *SimilarityService) ClearCache(ctx context.Context) {
	s.store.DeletePrefix(ctx, indexCachePrefix)
	s.logger.InfoContext(ctx, "similarity index cache cleared")
}

// BuildCount reports how many index builds have run since startup.
func (s *SimilarityService) BuildCount() int64 {
	return s.builds.Load()
}

// FindSimilar returns up to k comparable games for the target, closest first.
// An unknown target id or an empty population yields an empty result, not an
// error; an unknown sport is a caller error.
func (s *SimilarityService) FindSimilar(ctx context.Context, sport, targetID string, k int, symmetric bool) (SimilarityResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SimilarityService.FindSimilar")
	defer span.End()

	if k <= 0 {
		return SimilarityResult{}, fmt.Errorf("%w: k must be greater than zero", ErrInvalidInput)
	}
	if strings.TrimSpace(targetID) == "" {
		return SimilarityResult{}, fmt.Errorf("%w: target game id is required", ErrInvalidInput)
	}

	idx, err := s.ensureIndex(ctx, sport, symmetric)
	if err != nil {
		return SimilarityResult{}, err
	}

	result := SimilarityResult{
		Sport:     idx.spec.Sport,
		TargetID:  targetID,
		Symmetric: symmetric,
		Games:     []SimilarGame{},
	}
	if idx.index == nil {
		return result, nil
	}

	target, exists, err := s.games.GetByID(ctx, idx.spec.Sport, targetID)
	if err != nil {
		return SimilarityResult{}, fmt.Errorf("get target game: %w", err)
	}
	if !exists {
		return result, nil
	}

	standardized, err := idx.standardizer.Transform(target.Vector(idx.spec, symmetric))
	if err != nil {
		return SimilarityResult{}, fmt.Errorf("standardize target vector: %w", err)
	}

	// k+1 tolerates the target sitting in its own index.
	neighbors, err := idx.index.Nearest(standardized, k+1)
	if err != nil {
		return SimilarityResult{}, fmt.Errorf("query similarity index: %w", err)
	}

	targetRaw := target.Vector(idx.spec, false)
	for _, neighbor := range neighbors {
		candidate := idx.games[neighbor.Position]
		if candidate.ID == targetID {
			continue
		}
		if len(result.Games) == k {
			break
		}
		result.Games = append(result.Games, SimilarGame{
			GameID:  candidate.ID,
			Score:   similarityScore(neighbor.Distance),
			Mapping: resolveMapping(targetRaw, idx.rawVectors[neighbor.Position]),
			Game:    candidate,
		})
	}

	return result, nil
}

func (s *SimilarityService) ensureIndex(ctx context.Context, sport string, symmetric bool) (*builtIndex, error) {
	spec, ok := game.SpecForSport(sport)
	if !ok {
		return nil, fmt.Errorf("%w: no feature schema for sport %q", ErrInvalidInput, sport)
	}

	key := indexCachePrefix + spec.Sport + ":" + variantKey(symmetric)
	value, err := s.store.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.buildIndex(ctx, spec, symmetric)
	})
	if err != nil {
		return nil, err
	}

	idx, ok := value.(*builtIndex)
	if !ok {
		return nil, fmt.Errorf("unexpected index cache payload type %T", value)
	}
	return idx, nil
}

func (s *SimilarityService) buildIndex(ctx context.Context, spec game.FeatureSpec, symmetric bool) (*builtIndex, error) {
	s.builds.Add(1)

	rows, err := s.games.ListBySport(ctx, spec.Sport)
	if err != nil {
		return nil, fmt.Errorf("list games for index build: %w", err)
	}

	population := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		if row.HasStat(spec.PrimaryField()) {
			population = append(population, row)
		}
	}

	idx := &builtIndex{spec: spec, symmetric: symmetric}
	if len(population) == 0 {
		s.logger.WarnContext(ctx, "similarity index built over empty population",
			"sport", spec.Sport, "variant", variantKey(symmetric))
		return idx, nil
	}

	vectors := make([][]float64, len(population))
	rawVectors := make([][]float64, len(population))
	for i, row := range population {
		vectors[i] = row.Vector(spec, symmetric)
		rawVectors[i] = row.Vector(spec, false)
	}

	standardizer, err := knn.FitStandardizer(vectors)
	if err != nil {
		return nil, fmt.Errorf("fit standardizer sport=%s: %w", spec.Sport, err)
	}
	standardized, err := standardizer.TransformAll(vectors)
	if err != nil {
		return nil, fmt.Errorf("standardize population sport=%s: %w", spec.Sport, err)
	}
	searchIndex, err := knn.NewIndex(standardized)
	if err != nil {
		return nil, fmt.Errorf("build knn index sport=%s: %w", spec.Sport, err)
	}

	idx.standardizer = standardizer
	idx.index = searchIndex
	idx.games = population
	idx.rawVectors = rawVectors

	s.logger.InfoContext(ctx, "similarity index built",
		"sport", spec.Sport, "variant", variantKey(symmetric), "population", len(population))
	return idx, nil
}

func similarityScore(distance float64) float64 {
	score := 100 * math.Max(0, 1-distance/referenceDistance)
	return math.Round(score*10) / 10
}

// resolveMapping compares two alignment hypotheses over raw vectors: home
// aligns with home, or home aligns with away. Ties choose direct.
func resolveMapping(target, candidate []float64) MappingDirection {
	var direct, flipped float64
	for i := 0; i+1 < len(target) && i+1 < len(candidate); i += 2 {
		dh := target[i] - candidate[i]
		da := target[i+1] - candidate[i+1]
		direct += dh*dh + da*da

		fh := target[i] - candidate[i+1]
		fa := target[i+1] - candidate[i]
		flipped += fh*fh + fa*fa
	}
	if direct <= flipped {
		return MappingDirect
	}
	return MappingFlipped
}

func variantKey(symmetric bool) string {
	if symmetric {
		return "symmetric"
	}
	return "raw"
}
