package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lead-radar/internal/auth"
	"lead-radar/internal/domain"
	"lead-radar/internal/service"
)

const apiVersion = "1.0.0"

// Services groups the domain services exposed over HTTP.
type Services struct {
	Users        service.UserService
	Businesses   service.BusinessService
	Leads        service.LeadService
	Campaigns    service.CampaignService
	LandingPages service.LandingPageService
	Insights     service.InsightService
	Reports      service.ReportService
}

// Options configures transport level behavior.
type Options struct {
	CORSOrigins []string
	RateRPS     float64
	RateBurst   int
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	svc     Services
	tokens  *auth.TokenIssuer
	logger  *logrus.Logger
	opts    Options
	limiter *ipRateLimiter
}

func NewHandler(svc Services, tokens *auth.TokenIssuer, logger *logrus.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.RateRPS <= 0 {
		opts.RateRPS = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	return &Handler{
		svc:     svc,
		tokens:  tokens,
		logger:  logger,
		opts:    opts,
		limiter: newIPRateLimiter(opts.RateRPS, opts.RateBurst),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	useJSONFieldNames()
	router.Use(requestLogger(h.logger), corsMiddleware(h.opts.CORSOrigins))

	api := router.Group("/api")
	{
		api.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "Lead Radar API", "version": apiVersion})
		})
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)

		public := api.Group("/p", h.limiter.middleware())
		public.GET("/:slug", h.viewLandingPage)
		public.POST("/:slug/lead", h.captureLead)
	}

	authed := api.Group("", AuthMiddleware(h.tokens, h.svc.Users, h.logger))
	{
		authed.GET("/auth/me", h.me)

		authed.POST("/business", h.createBusiness)
		authed.GET("/business", h.getBusiness)
		authed.PUT("/business", h.updateBusiness)

		authed.POST("/leads", h.createLead)
		authed.GET("/leads", h.listLeads)
		authed.PUT("/leads/:id/status", h.updateLeadStatus)
		authed.DELETE("/leads/:id", h.deleteLead)

		authed.POST("/campaigns", h.createCampaign)
		authed.GET("/campaigns", h.listCampaigns)
		authed.PUT("/campaigns/:id", h.updateCampaign)
		authed.DELETE("/campaigns/:id", h.deleteCampaign)

		authed.POST("/landing-pages", h.createLandingPage)
		authed.GET("/landing-pages", h.listLandingPages)
		authed.PUT("/landing-pages/:id", h.updateLandingPage)
		authed.DELETE("/landing-pages/:id", h.deleteLandingPage)
		authed.GET("/landing-pages/:id/qrcode", h.landingPageQRCode)

		authed.POST("/insights/market", h.marketInsight)
		authed.POST("/insights/strategy", h.strategy)
		authed.GET("/insights", h.listInsights)

		authed.GET("/reports/dashboard", h.dashboard)
		authed.POST("/reports/generate", h.generateReport)
		authed.GET("/reports/history", h.reportHistory)
		authed.GET("/reports/:id/download", h.downloadReport)
		authed.GET("/reports/archives", h.listArchives)
	}
}

// userID returns the authenticated caller. Routes behind AuthMiddleware always have one.
func (h *Handler) userID(c *gin.Context) string {
	user, _ := CurrentUser(c)
	if user == nil {
		return ""
	}
	return user.ID
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Users.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.issueToken(c, user, http.StatusOK)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Incomplete credentials get the same answer as wrong ones.
		h.writeError(c, domain.NewUnauthorized("incorrect email or password"))
		return
	}
	user, err := h.svc.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.issueToken(c, user, http.StatusOK)
}

func (h *Handler) issueToken(c *gin.Context, user *domain.User, status int) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

type businessRequest struct {
	Name        string `json:"name" binding:"required"`
	Niche       string `json:"niche" binding:"required"`
	Description string `json:"description"`
	City        string `json:"city"`
	State       string `json:"state"`
}

func (r businessRequest) input() service.BusinessInput {
	return service.BusinessInput{
		Name:        r.Name,
		Niche:       r.Niche,
		Description: r.Description,
		City:        r.City,
		State:       r.State,
	}
}

func (h *Handler) createBusiness(c *gin.Context) {
	var req businessRequest
	if !h.bindJSON(c, &req) {
		return
	}
	business, err := h.svc.Businesses.Create(c.Request.Context(), h.userID(c), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, businessToResponse(business))
}

func (h *Handler) getBusiness(c *gin.Context) {
	business, err := h.svc.Businesses.Get(c.Request.Context(), h.userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, businessToResponse(business))
}

func (h *Handler) updateBusiness(c *gin.Context) {
	var req businessRequest
	if !h.bindJSON(c, &req) {
		return
	}
	business, err := h.svc.Businesses.Update(c.Request.Context(), h.userID(c), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, businessToResponse(business))
}

type leadRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Interest string `json:"interest"`
	Source   string `json:"source"`
}

func (r leadRequest) input() service.LeadInput {
	return service.LeadInput{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Interest: r.Interest,
		Source:   r.Source,
	}
}

func (h *Handler) createLead(c *gin.Context) {
	var req leadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	lead, err := h.svc.Leads.Create(c.Request.Context(), h.userID(c), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, leadToResponse(lead))
}

func (h *Handler) listLeads(c *gin.Context) {
	leads, err := h.svc.Leads.List(c.Request.Context(), h.userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]LeadResponse, len(leads))
	for i := range leads {
		resp[i] = leadToResponse(&leads[i])
	}
	c.JSON(http.StatusOK, resp)
}

type leadStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateLeadStatus(c *gin.Context) {
	status := c.Query("status")
	if status == "" && c.Request.ContentLength != 0 {
		var req leadStatusRequest
		if !h.bindJSON(c, &req) {
			return
		}
		status = req.Status
	}
	if status == "" {
		h.writeError(c, domain.NewValidation("invalid request", map[string]string{"status": "is required"}))
		return
	}
	if err := h.svc.Leads.UpdateStatus(c.Request.Context(), h.userID(c), c.Param("id"), domain.LeadStatus(status)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

func (h *Handler) deleteLead(c *gin.Context) {
	if err := h.svc.Leads.Delete(c.Request.Context(), h.userID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "lead deleted"})
}

type campaignRequest struct {
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"omitempty,oneof=draft active paused finished"`
}

func (r campaignRequest) input() service.CampaignInput {
	return service.CampaignInput{
		Name:        r.Name,
		Type:        r.Type,
		Description: r.Description,
		Status:      domain.CampaignStatus(r.Status),
	}
}

func (h *Handler) createCampaign(c *gin.Context) {
	var req campaignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	campaign, err := h.svc.Campaigns.Create(c.Request.Context(), h.userID(c), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaignToResponse(campaign))
}

func (h *Handler) listCampaigns(c *gin.Context) {
	campaigns, err := h.svc.Campaigns.List(c.Request.Context(), h.userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]CampaignResponse, len(campaigns))
	for i := range campaigns {
		resp[i] = campaignToResponse(&campaigns[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateCampaign(c *gin.Context) {
	var req campaignRequest
	if !h.bindJSON(c, &req) {
		return
	}
	campaign, err := h.svc.Campaigns.Update(c.Request.Context(), h.userID(c), c.Param("id"), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaignToResponse(campaign))
}

func (h *Handler) deleteCampaign(c *gin.Context) {
	if err := h.svc.Campaigns.Delete(c.Request.Context(), h.userID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "campaign deleted"})
}

type landingPageRequest struct {
	Title       string `json:"title" binding:"required"`
	Headline    string `json:"headline" binding:"required"`
	Description string `json:"description"`
	Offer       string `json:"offer"`
	CTAText     string `json:"cta_text"`
}

func (r landingPageRequest) input() service.LandingPageInput {
	return service.LandingPageInput{
		Title:       r.Title,
		Headline:    r.Headline,
		Description: r.Description,
		Offer:       r.Offer,
		CTAText:     r.CTAText,
	}
}

func (h *Handler) createLandingPage(c *gin.Context) {
	var req landingPageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	page, err := h.svc.LandingPages.Create(c.Request.Context(), h.userID(c), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.landingPageToResponse(page))
}

func (h *Handler) listLandingPages(c *gin.Context) {
	pages, err := h.svc.LandingPages.List(c.Request.Context(), h.userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]LandingPageResponse, len(pages))
	for i := range pages {
		resp[i] = h.landingPageToResponse(&pages[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateLandingPage(c *gin.Context) {
	var req landingPageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	page, err := h.svc.LandingPages.Update(c.Request.Context(), h.userID(c), c.Param("id"), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.landingPageToResponse(page))
}

func (h *Handler) deleteLandingPage(c *gin.Context) {
	if err := h.svc.LandingPages.Delete(c.Request.Context(), h.userID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "landing page deleted"})
}

func (h *Handler) landingPageQRCode(c *gin.Context) {
	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(c, domain.NewValidation("invalid qr code size", map[string]string{"size": "must be a positive integer"}))
			return
		}
		size = n
	}
	png, err := h.svc.LandingPages.QRCode(c.Request.Context(), h.userID(c), c.Param("id"), size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) viewLandingPage(c *gin.Context) {
	page, err := h.svc.LandingPages.View(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PublicLandingPageResponse{
		Title:       page.Title,
		Headline:    page.Headline,
		Description: page.Description,
		Offer:       page.Offer,
		CTAText:     page.CTAText,
	})
}

type captureRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Interest string `json:"interest"`
}

func (h *Handler) captureLead(c *gin.Context) {
	var req captureRequest
	if !h.bindJSON(c, &req) {
		return
	}
	lead, err := h.svc.LandingPages.Capture(c.Request.Context(), c.Param("slug"), service.LeadInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Interest: req.Interest,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "thank you, we will be in touch soon", "id": lead.ID})
}

type marketInsightRequest struct {
	Niche string `json:"niche" binding:"required"`
	City  string `json:"city"`
	Type  string `json:"type" binding:"omitempty,oneof=trends complaints opportunities"`
}

func (h *Handler) marketInsight(c *gin.Context) {
	var req marketInsightRequest
	if !h.bindJSON(c, &req) {
		return
	}
	insight, err := h.svc.Insights.Market(c.Request.Context(), h.userID(c), domain.InsightType(req.Type), req.Niche, req.City)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insight": insight.Content, "type": insight.Type})
}

type strategyRequest struct {
	Niche       string `json:"niche" binding:"required"`
	InsightType string `json:"insight_type" binding:"omitempty,oneof=campaign content promotion"`
}

func (h *Handler) strategy(c *gin.Context) {
	var req strategyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	kind := domain.StrategyType(req.InsightType)
	if kind == "" {
		kind = domain.StrategyTypeCampaign
	}
	text, err := h.svc.Insights.Strategy(c.Request.Context(), kind, req.Niche)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategy": text, "type": kind})
}

func (h *Handler) listInsights(c *gin.Context) {
	insights, err := h.svc.Insights.List(c.Request.Context(), h.userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]InsightResponse, len(insights))
	for i := range insights {
		resp[i] = insightToResponse(&insights[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) dashboard(c *gin.Context) {
	dashboard, err := h.svc.Reports.Dashboard(c.Request.Context(), h.userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

type generateReportRequest struct {
	Period string `json:"period" binding:"omitempty,oneof=daily weekly monthly"`
}

func (h *Handler) generateReport(c *gin.Context) {
	var req generateReportRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	report, err := h.svc.Reports.Generate(c.Request.Context(), h.userID(c), domain.ReportPeriod(req.Period))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GeneratedReportResponse{
		ID:            report.ID,
		Report:        report.Analysis,
		Data:          report.Data,
		Period:        report.Period,
		ArchiveStatus: report.ArchiveStatus,
		GeneratedAt:   formatTime(report.CreatedAt),
	})
}

func (h *Handler) reportHistory(c *gin.Context) {
	reports, err := h.svc.Reports.History(c.Request.Context(), h.userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]ReportResponse, len(reports))
	for i := range reports {
		resp[i] = reportToResponse(&reports[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) downloadReport(c *gin.Context) {
	url, err := h.svc.Reports.DownloadURL(c.Request.Context(), h.userID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) listArchives(c *gin.Context) {
	objects, err := h.svc.Reports.Archives(c.Request.Context(), h.userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}
