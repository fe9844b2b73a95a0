package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/gin-gonic/gin"
)

type safeResponse struct {
	ChainID   int64                `json:"chainId"`
	Safe      string               `json:"safe"`
	Deployed  bool                 `json:"deployed"`
	Contracts types.ContractConfig `json:"contracts"`
}

func (s *Server) handleSafe(c *gin.Context) {
	safe, err := s.relayer.ExpectedSafe()
	if err != nil {
		s.writeError(c, err)
		return
	}
	deployed, err := s.relayer.GetDeployed(c.Request.Context(), safe.Hex())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, safeResponse{
		ChainID:   s.relayer.ChainID(),
		Safe:      safe.Hex(),
		Deployed:  deployed,
		Contracts: s.relayer.ContractConfig(),
	})
}

func (s *Server) handleRedeemablePositions(c *gin.Context) {
	user := strings.TrimSpace(c.Query("user"))
	if user == "" {
		safe, err := s.relayer.ExpectedSafe()
		if err != nil {
			s.writeError(c, err)
			return
		}
		user = safe.Hex()
	}
	positions, err := s.relayer.GetRedeemablePositions(c.Request.Context(), user)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "positions": positions})
}

func (s *Server) handleDeploy(c *gin.Context) {
	resp, err := s.relayer.Deploy(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

type executeRequest struct {
	Transactions []types.SafeTransaction `json:"transactions"`
	Metadata     string                  `json:"metadata"`
}

func (s *Server) handleExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	resp, err := s.relayer.Execute(c.Request.Context(), req.Transactions, req.Metadata)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

type redeemRequest struct {
	ConditionID string   `json:"conditionId"`
	IndexSets   []uint64 `json:"indexSets"`
	Metadata    string   `json:"metadata"`
}

func (s *Server) handleRedeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	if len(req.IndexSets) == 0 {
		req.IndexSets = []uint64{1, 2}
	}
	resp, err := s.relayer.RedeemPositions(c.Request.Context(), req.ConditionID, req.IndexSets, req.Metadata)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// amountRequest carries either base units (amount) or a USDC quantity (usdc).
type amountRequest struct {
	ConditionID string `json:"conditionId"`
	Amount      string `json:"amount"`
	USDC        string `json:"usdc"`
	Metadata    string `json:"metadata"`
}

func (r amountRequest) baseUnits() (string, error) {
	if r.USDC != "" {
		return types.USDCToBaseUnits(r.USDC)
	}
	return r.Amount, nil
}

func (s *Server) handleSplit(c *gin.Context) {
	s.handleAmountCall(c, s.relayer.SplitPosition)
}

func (s *Server) handleMerge(c *gin.Context) {
	s.handleAmountCall(c, s.relayer.MergePositions)
}

type amountCall func(ctx context.Context, conditionID, amount, metadata string) (*types.SubmitResponse, error)

func (s *Server) handleAmountCall(c *gin.Context, call amountCall) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	amount, err := req.baseUnits()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	resp, err := call(c.Request.Context(), req.ConditionID, amount, req.Metadata)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

type redeemAllItem struct {
	Position types.RedeemablePosition `json:"position"`
	Response *types.SubmitResponse    `json:"response,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

func (s *Server) handleRedeemAll(c *gin.Context) {
	results, err := s.relayer.RedeemAllPositions(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	items := make([]redeemAllItem, 0, len(results))
	failed := 0
	for _, r := range results {
		item := redeemAllItem{Position: r.Position, Response: r.Response}
		if r.Err != nil {
			item.Error = r.Err.Error()
			failed++
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"results": items, "submitted": len(items) - failed, "failed": failed})
}

func (s *Server) handleTransactionGet(c *gin.Context) {
	txs, err := s.relayer.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if len(txs) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "transaction not found", RequestID: c.GetString("request_id")})
		return
	}
	tx := txs[0]
	c.JSON(http.StatusOK, gin.H{"transaction": tx, "state": tx.ParsedState().String(), "terminal": tx.ParsedState().IsTerminal()})
}

type waitRequest struct {
	MaxPolls   int `json:"maxPolls"`
	IntervalMs int `json:"intervalMs"`
}

func (s *Server) handleTransactionWait(c *gin.Context) {
	var req waitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid json body")
			return
		}
	}
	tx, err := s.relayer.WaitForTransaction(c.Request.Context(), c.Param("id"), req.MaxPolls, time.Duration(req.IntervalMs)*time.Millisecond)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if tx == nil {
		c.JSON(http.StatusAccepted, gin.H{"transactionId": c.Param("id"), "terminal": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx, "state": tx.ParsedState().String(), "terminal": true})
}

func (s *Server) handleJournalList(c *gin.Context) {
	if s.journal == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "journal disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := s.journal.List(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleJournalGet(c *gin.Context) {
	if s.journal == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "journal disabled"})
		return
	}
	id := c.Param("id")
	entry, err := s.journal.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if entry == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "transaction not journaled"})
		return
	}
	events, err := s.journal.Events(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "events": events})
}

func (s *Server) handleRedeemerStats(c *gin.Context) {
	if s.redeemer == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: "auto-redeem disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"running": s.redeemer.Running(), "stats": s.redeemer.Stats()})
}
