package gateway

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/example/zastore/pkg/auth"
	"github.com/example/zastore/pkg/orders"
	"github.com/example/zastore/pkg/settings"
	"github.com/gin-gonic/gin"
)

func actorID(c *gin.Context) string {
	if id, ok := auth.Current(c); ok {
		return id.Subject
	}
	return ""
}

func listFilter(c *gin.Context) orders.ListFilter {
	return orders.ListFilter{
		Status:   c.Query("status"),
		Page:     intQuery(c, "page"),
		PageSize: intQuery(c, "pageSize"),
	}
}

func (g *Gateway) listOrders(c *gin.Context) {
	page, err := g.services.Orders.ListOrders(c.Request.Context(), listFilter(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (g *Gateway) getOrder(c *gin.Context) {
	view, err := g.services.Orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": view})
}

func (g *Gateway) orderHistory(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	entries, err := g.services.Orders.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (g *Gateway) exportOrders(c *gin.Context) {
	var buf bytes.Buffer
	if err := g.services.Orders.ExportCSV(c.Request.Context(), listFilter(c), &buf); err != nil {
		g.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "orders.csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

type statusRequest struct {
	Status string `json:"status"`
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	view, err := g.services.Orders.SetStatus(c.Request.Context(), actorID(c), c.Param("id"), req.Status)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": view})
}

type trackingRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	CourierName    string `json:"courierName"`
}

func (g *Gateway) updateOrderTracking(c *gin.Context) {
	var req trackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	view, err := g.services.Orders.SetTracking(c.Request.Context(), actorID(c), c.Param("id"), req.TrackingNumber, req.CourierName)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": view})
}

func (g *Gateway) adminSettings(c *gin.Context) {
	current, err := g.services.Settings.Get(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": current})
}

func (g *Gateway) updateSettings(c *gin.Context) {
	var req settings.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	updated, err := g.services.Settings.Update(c.Request.Context(), actorID(c), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": updated})
}
