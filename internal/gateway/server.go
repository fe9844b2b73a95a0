// Package gateway exposes the relayer client over a small JSON HTTP API.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/betbot/polyrelay/pkg/sdk/redeem"
	"github.com/betbot/polyrelay/pkg/sdk/relayer"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/journal"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

// Relayer is the subset of *relayer.Client served by the gateway.
type Relayer interface {
	ChainID() int64
	ContractConfig() types.ContractConfig
	ExpectedSafe() (common.Address, error)
	GetDeployed(ctx context.Context, address string) (bool, error)
	GetRedeemablePositions(ctx context.Context, user string) ([]types.RedeemablePosition, error)
	Deploy(ctx context.Context) (*types.SubmitResponse, error)
	Execute(ctx context.Context, txs []types.SafeTransaction, metadata string) (*types.SubmitResponse, error)
	RedeemPositions(ctx context.Context, conditionID string, indexSets []uint64, metadata string) (*types.SubmitResponse, error)
	SplitPosition(ctx context.Context, conditionID, amount, metadata string) (*types.SubmitResponse, error)
	MergePositions(ctx context.Context, conditionID, amount, metadata string) (*types.SubmitResponse, error)
	RedeemAllPositions(ctx context.Context) ([]relayer.RedeemResult, error)
	GetTransaction(ctx context.Context, id string) ([]types.RelayerTransaction, error)
	WaitForTransaction(ctx context.Context, id string, maxPolls int, interval time.Duration) (*types.RelayerTransaction, error)
}

// Journal is the read side of the transaction journal.
type Journal interface {
	List(ctx context.Context, limit int) ([]journal.Entry, error)
	Get(ctx context.Context, transactionID string) (*journal.Entry, error)
	Events(ctx context.Context, transactionID string) ([]journal.StateEvent, error)
}

type Config struct {
	Relayer Relayer
	// Journal and Redeemer are optional; their endpoints answer 404 when unset.
	Journal  Journal
	Redeemer *redeem.AutoRedeemer
	Logger   *logrus.Entry
}

type Server struct {
	relayer  Relayer
	journal  Journal
	redeemer *redeem.AutoRedeemer
	log      *logrus.Entry
}

func New(cfg Config) (*Server, error) {
	if cfg.Relayer == nil {
		return nil, errors.New("gateway: relayer is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.WithField("component", "gateway")
	}
	return &Server{
		relayer:  cfg.Relayer,
		journal:  cfg.Journal,
		redeemer: cfg.Redeemer,
		log:      log,
	}, nil
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/safe", s.handleSafe)
	api.GET("/positions/redeemable", s.handleRedeemablePositions)

	api.POST("/deploy", s.handleDeploy)
	api.POST("/execute", s.handleExecute)
	api.POST("/redeem", s.handleRedeem)
	api.POST("/split", s.handleSplit)
	api.POST("/merge", s.handleMerge)
	api.POST("/redeem-all", s.handleRedeemAll)

	txs := api.Group("/transactions")
	txs.GET("/:id", s.handleTransactionGet)
	txs.POST("/:id/wait", s.handleTransactionWait)

	api.GET("/journal", s.handleJournalList)
	api.GET("/journal/:id", s.handleJournalGet)
	api.GET("/redeemer/stats", s.handleRedeemerStats)

	return r
}

// Serve runs the gateway on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("gateway listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
		}).Debug("request")
	}
}
