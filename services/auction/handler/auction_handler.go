package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"timed-auction/internal/biddingerrors"
	model "timed-auction/internal/models"
	"timed-auction/services/auction/helpers"
	"timed-auction/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -destination=mock_auction_handler.go -package=handler timed-auction/services/auction/handler AuctionServiceInterface

type AuctionServiceInterface interface {
	CreateListing(ctx context.Context, ownerID, name string, price int64) (model.Good, error)
	PlaceBid(ctx context.Context, goodID, bidderID string, amount int64, message string) (model.Bid, error)
	GetListing(ctx context.Context, goodID string) (model.Listing, error)
	GetBidsForGood(ctx context.Context, goodID string) ([]model.Bid, error)
	ListActiveListings(ctx context.Context) ([]model.Listing, error)
	ListWonListings(ctx context.Context, userID string) ([]model.Listing, error)
	GetUser(ctx context.Context, userID string) (model.User, error)
}

// RoomServer attaches a websocket connection to a good's room
type RoomServer interface {
	HandleWS(w http.ResponseWriter, r *http.Request, goodID string)
}

type AuctionHandler struct {
	service AuctionServiceInterface
	rooms   RoomServer
	window  time.Duration
}

// NewAuctionHandler creates the HTTP handlers. rooms may be nil, in which case
// the websocket route answers 503.
func NewAuctionHandler(service AuctionServiceInterface, rooms RoomServer, window time.Duration) *AuctionHandler {
	return &AuctionHandler{service: service, rooms: rooms, window: window}
}

// fail renders err and logs it; rejections are expected traffic and logged
// at warn level
func fail(c *gin.Context, handlerName, logMsg string, err error, fields map[string]any) {
	status, message := helpers.MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	fields["handler"] = handlerName
	fields["error"] = err.Error()
	if biddingerrors.IsRejection(err) {
		fields["code"] = biddingerrors.Code(err)
		utils.Warn(handlerName+": "+logMsg, fields)
		return
	}
	utils.Error(handlerName+": "+logMsg, fields)
}

// CreateListingHandler handles POST /goods
func (h *AuctionHandler) CreateListingHandler(c *gin.Context) {
	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	good, err := h.service.CreateListing(c.Request.Context(), req.OwnerID, req.Name, req.Price)
	if err != nil {
		fail(c, "CreateListingHandler", "failed to create listing", err, map[string]any{"owner_id": req.OwnerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToGoodResponse(good, h.window), "listing created successfully")
	helpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"good_id":  good.GoodID,
		"owner_id": good.OwnerID,
		"price":    good.Price,
	})
}

// ListActiveHandler handles GET /goods
func (h *AuctionHandler) ListActiveHandler(c *gin.Context) {
	listings, err := h.service.ListActiveListings(c.Request.Context())
	if err != nil {
		fail(c, "ListActiveHandler", "error listing goods", err, map[string]any{})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponses(listings, h.window), "listings retrieved successfully")
	helpers.LogSuccess("ListActiveHandler", "listings retrieved successfully", map[string]any{"count": len(listings)})
}

// GetListingHandler handles GET /goods/:good_id
func (h *AuctionHandler) GetListingHandler(c *gin.Context) {
	goodID := c.Param("good_id")
	listing, err := h.service.GetListing(c.Request.Context(), goodID)
	if err != nil {
		fail(c, "GetListingHandler", "error retrieving listing", err, map[string]any{"good_id": goodID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponse(listing, h.window), "listing retrieved successfully")
	helpers.LogSuccess("GetListingHandler", "listing retrieved successfully", map[string]any{
		"good_id": goodID,
		"bids":    len(listing.Bids),
	})
}

// GetBidsHandler handles GET /goods/:good_id/bids
func (h *AuctionHandler) GetBidsHandler(c *gin.Context) {
	goodID := c.Param("good_id")
	bids, err := h.service.GetBidsForGood(c.Request.Context(), goodID)
	if err != nil {
		fail(c, "GetBidsHandler", "error retrieving bids", err, map[string]any{"good_id": goodID})
		return
	}

	resp := make([]helpers.BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, helpers.ToBidResponse(b))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsHandler", "bids retrieved successfully", map[string]any{
		"good_id": goodID,
		"count":   len(bids),
	})
}

// PlaceBidHandler handles POST /goods/:good_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	goodID := c.Param("good_id")
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), goodID, req.UserID, req.Amount, req.Message)
	if err != nil {
		fail(c, "PlaceBidHandler", "bid rejected", err, map[string]any{
			"good_id": goodID,
			"user_id": req.UserID,
			"amount":  req.Amount,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":  bid.BidID,
		"good_id": bid.GoodID,
		"user_id": bid.UserID,
		"amount":  bid.Amount,
	})
}

// RoomHandler handles GET /goods/:good_id/ws
func (h *AuctionHandler) RoomHandler(c *gin.Context) {
	goodID := c.Param("good_id")
	if h.rooms == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, fmt.Errorf("live updates disabled"), "live updates disabled")
		return
	}
	if _, err := h.service.GetListing(c.Request.Context(), goodID); err != nil {
		fail(c, "RoomHandler", "cannot join room", err, map[string]any{"good_id": goodID})
		return
	}
	h.rooms.HandleWS(c.Writer, c.Request, goodID)
}

// GetUserHandler handles GET /users/:user_id
func (h *AuctionHandler) GetUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		fail(c, "GetUserHandler", "error retrieving user", err, map[string]any{"user_id": userID})
		return
	}

	resp := helpers.UserResponse{UserID: user.UserID, Nickname: user.Nickname, Balance: user.Balance}
	utils.JSONResponse(c, http.StatusOK, resp, "user retrieved successfully")
}

// ListWonHandler handles GET /users/:user_id/won
func (h *AuctionHandler) ListWonHandler(c *gin.Context) {
	userID := c.Param("user_id")
	listings, err := h.service.ListWonListings(c.Request.Context(), userID)
	if err != nil {
		fail(c, "ListWonHandler", "error retrieving won goods", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.ToListingResponses(listings, h.window), "won goods retrieved successfully")
	helpers.LogSuccess("ListWonHandler", "won goods retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(listings),
	})
}
