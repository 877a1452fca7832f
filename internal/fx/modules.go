package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"vlr-pipeline/internal/api"
	"vlr-pipeline/internal/config"
	"vlr-pipeline/internal/database"
	"vlr-pipeline/internal/logger"
	"vlr-pipeline/internal/reconcile"
	"vlr-pipeline/internal/repository"
	"vlr-pipeline/internal/server"
	"vlr-pipeline/internal/service"
)

// provideReconciler binds the concrete repositories onto the
// reconciliation layer's store interfaces.
func provideReconciler(
	teams *repository.TeamRepository,
	players *repository.PlayerRepository,
	events *repository.EventRepository,
	agents *repository.AgentRepository,
	maps *repository.MapRepository,
	log zerolog.Logger,
) *reconcile.Reconciler {
	return reconcile.New(teams, players, events, agents, maps, log)
}

func provideFeedClient(c *api.VLRClient) service.FeedClient { return c }

func provideMatchStore(r *repository.MatchRepository) service.MatchStore { return r }

func provideStatStore(r *repository.StatRepository) service.StatStore { return r }

func provideRunLedger(r *repository.LedgerRepository) service.RunLedger { return r }

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewTeamRepository),
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewEventRepository),
	fx.Provide(repository.NewAgentRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewMapRepository),
	fx.Provide(repository.NewStatRepository),
	fx.Provide(repository.NewLedgerRepository),
	// feed client + reconciliation
	fx.Provide(api.NewVLRClient),
	fx.Provide(provideFeedClient),
	fx.Provide(provideReconciler),
	fx.Provide(provideMatchStore),
	fx.Provide(provideStatStore),
	fx.Provide(provideRunLedger),
	// pipelines
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewMatchResultsService),
	fx.Provide(service.NewEventsService),
	fx.Provide(service.NewRankingsService),
	fx.Provide(service.NewMatchDetailService),
	fx.Provide(service.NewOrchestrator),
	// server
	fx.Provide(server.NewIngestServer),
)
