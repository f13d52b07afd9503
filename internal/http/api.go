package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/sirupsen/logrus"

	"expense-tracker/internal/service"
)

const DefaultCookieName = "expense_session"

// Options tunes the session cookie and CORS policy.
type Options struct {
	CookieName    string
	CookieSecure  bool
	AllowedOrigin string
}

// Handler wires HTTP routes to the GraphQL schema.
type Handler struct {
	schema   *graphqlgo.Schema
	sessions service.SessionService
	opts     Options
	logger   logrus.FieldLogger
}

func NewHandler(schema *graphqlgo.Schema, sessions service.SessionService, opts Options, logger logrus.FieldLogger) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		schema:   schema,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware(h.opts.AllowedOrigin))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gql := router.Group("/graphql", h.sessionMiddleware())
	{
		gql.POST("", h.postGraphQL)
		gql.GET("", h.getGraphQL)
	}
}

type graphqlRequest struct {
	Query         string                 `json:"query" binding:"required"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowedOrigin != "" && (allowedOrigin == "*" || strings.EqualFold(origin, allowedOrigin)) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Info("request")
	}
}

func (h *Handler) postGraphQL(c *gin.Context) {
	var req graphqlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.execute(c, req)
}

// getGraphQL serves queries only; a cross-site link must not be able to
// trigger a mutation with the user's cookie.
func (h *Handler) getGraphQL(c *gin.Context) {
	req := graphqlRequest{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if hasMutation(req.Query) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "mutations require POST"})
		return
	}
	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variables"})
			return
		}
	}
	h.execute(c, req)
}

// hasMutation reports whether the document declares a mutation operation.
func hasMutation(doc string) bool {
	const keyword = "mutation"
	for i := 0; ; {
		idx := strings.Index(doc[i:], keyword)
		if idx < 0 {
			return false
		}
		start := i + idx
		end := start + len(keyword)
		before := start == 0 || doc[start-1] == '}' || isGraphQLSpace(doc[start-1])
		after := end == len(doc) || doc[end] == '(' || doc[end] == '{' || isGraphQLSpace(doc[end])
		if before && after {
			return true
		}
		i = end
	}
}

func isGraphQLSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == ','
}

func (h *Handler) execute(c *gin.Context, req graphqlRequest) {
	resp := h.schema.Exec(c.Request.Context(), req.Query, req.OperationName, req.Variables)
	c.JSON(http.StatusOK, resp)
}
