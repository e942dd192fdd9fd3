// Package pipeline composes fetching, extraction, and provider calls into
// the generation strategies exposed by the API. Single-model strategies run
// one tool loop; hybrid strategies chain a cheap extraction or refinement
// stage into a cheap generation stage and fold the per-stage usage.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mailforge/mailforge/cleaner"
	"github.com/mailforge/mailforge/config"
	"github.com/mailforge/mailforge/extractor"
	"github.com/mailforge/mailforge/fetcher"
	"github.com/mailforge/mailforge/models"
	"github.com/mailforge/mailforge/orchestrator"
	"github.com/mailforge/mailforge/provider"
	"github.com/mailforge/mailforge/sanitize"
)

const (
	extractionMaxTokens = 4000
	refinementMaxTokens = 2000

	// miniModel is the cheap generation/refinement backend shared by every
	// hybrid strategy.
	miniModel = "gpt-4o-mini"
)

// Pipeline is the service layer behind the generation handlers.
type Pipeline struct {
	cfg       config.ProviderConfig
	anthropic *provider.Anthropic
	openai    *provider.OpenAI
	xai       *provider.OpenAI
	fetch     *fetcher.Fetcher
	clean     *cleaner.Cleaner
	logger    *slog.Logger
}

// New wires the provider clients from config. Clients for backends without
// a configured key are still constructed; key presence is checked per
// request so the error names the missing variable.
func New(cfg config.ProviderConfig, f *fetcher.Fetcher, c *cleaner.Cleaner, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	return &Pipeline{
		cfg:       cfg,
		anthropic: provider.NewAnthropic(cfg.AnthropicAPIKey, httpClient),
		openai:    provider.NewOpenAI(cfg.OpenAIAPIKey, httpClient),
		xai:       provider.NewOpenAICompatible(cfg.XAIAPIKey, cfg.XAIBaseURL, httpClient),
		fetch:     f,
		clean:     c,
		logger:    logger,
	}
}

// CheckKeys verifies that every backend the strategy touches has a key
// configured, failing before any network call.
func (p *Pipeline) CheckKeys(mc provider.ModelConfig) error {
	needOpenAI := false
	needAnthropic := false
	needXAI := false

	switch mc.Provider {
	case provider.FamilyAnthropic:
		needAnthropic = true
	case provider.FamilyOpenAI:
		needOpenAI = true
	case provider.FamilyXAI:
		needXAI = true
	case provider.FamilyOpenAIHybrid, provider.FamilyManualHybrid:
		needOpenAI = true
	case provider.FamilyClaudeHybrid:
		needAnthropic = true
		needOpenAI = true
	}

	if needAnthropic && p.cfg.AnthropicAPIKey == "" {
		return models.NewGenError(models.ErrCodeMissingKey,
			"Anthropic API key is not configured; set ANTHROPIC_API_KEY", nil)
	}
	if needOpenAI && p.cfg.OpenAIAPIKey == "" {
		return models.NewGenError(models.ErrCodeMissingKey,
			"OpenAI API key is not configured; set OPENAI_API_KEY", nil)
	}
	if needXAI && p.cfg.XAIAPIKey == "" {
		return models.NewGenError(models.ErrCodeMissingKey,
			"xAI API key is not configured; set XAI_API_KEY", nil)
	}
	return nil
}

// Generate runs the template-free Claude strategy with a full diagnostic
// transcript. The transcript is returned even when generation fails.
func (p *Pipeline) Generate(ctx context.Context, req models.GenerateRequest) (string, models.Usage, *orchestrator.Transcript, error) {
	mc := provider.Lookup(models.DefaultModel)
	transcript := orchestrator.NewTranscript(req.ProductURL, req.CustomPrompt)

	if err := p.CheckKeys(mc); err != nil {
		transcript.RecordError(err.Error())
		return "", models.Usage{}, transcript, err
	}

	prompt := buildGeneratePrompt(req.ProductURL, req.CustomPrompt)
	transcript.PromptSent = prompt

	loop := orchestrator.New(p.anthropic, p.fetch, p.clean, p.logger)
	out, err := loop.Run(ctx, orchestrator.Params{
		Model:           mc.ModelID,
		Prompt:          prompt,
		MaxOutputTokens: mc.MaxOutputTokens,
		MaxIterations:   orchestrator.MaxGenerationIterations,
		FetchBudget:     fetcher.BudgetDefault,
		Transcript:      transcript,
	})
	if err != nil {
		transcript.RecordError(err.Error())
		return "", models.Usage{}, transcript, err
	}

	html := sanitize.ExtractHTML(out.Content)
	transcript.RecordFinal(html, looksLikeDocument(html))
	out.Usage.EstimatedCostUSD = provider.Cost(mc.ModelID, out.Usage.InputTokens, out.Usage.OutputTokens)
	transcript.Usage = &out.Usage

	return html, out.Usage, transcript, nil
}

// GenerateFromTemplate routes a template request to its strategy.
func (p *Pipeline) GenerateFromTemplate(ctx context.Context, req models.TemplateRequest) (string, models.Usage, error) {
	mc := provider.Lookup(req.Model)
	if err := p.CheckKeys(mc); err != nil {
		return "", models.Usage{}, err
	}

	start := time.Now()
	var (
		content string
		usage   models.Usage
		err     error
	)

	switch mc.Provider {
	case provider.FamilyAnthropic:
		content, usage, err = p.singleModel(ctx, p.anthropic, mc, req)
	case provider.FamilyOpenAI:
		content, usage, err = p.singleModel(ctx, p.openai, mc, req)
	case provider.FamilyOpenAIHybrid:
		content, usage, err = p.extractThenGenerate(ctx, p.openai, mc.ExtractModelID, req)
	case provider.FamilyClaudeHybrid:
		content, usage, err = p.extractThenGenerate(ctx, p.anthropic, mc.ExtractModelID, req)
	case provider.FamilyManualHybrid:
		content, usage, err = p.manualExtractRefineGenerate(ctx, req)
	default:
		err = models.NewGenError(models.ErrCodeInvalidInput,
			"unsupported provider family: "+mc.Provider, nil)
	}
	if err != nil {
		return "", models.Usage{}, err
	}

	usage.GenerationTimeMs = time.Since(start).Milliseconds()
	return content, usage, nil
}

// singleModel runs the whole job in one tool loop on one backend.
func (p *Pipeline) singleModel(ctx context.Context, client provider.Chat, mc provider.ModelConfig, req models.TemplateRequest) (string, models.Usage, error) {
	prompt := buildTemplatePrompt(req.ProductURL, req.EmailTemplate, req.CustomPrompt)

	loop := orchestrator.New(client, p.fetch, p.clean, p.logger)
	out, err := loop.Run(ctx, orchestrator.Params{
		Model:           mc.ModelID,
		Prompt:          prompt,
		MaxOutputTokens: mc.MaxOutputTokens,
		MaxIterations:   orchestrator.MaxGenerationIterations,
		FetchBudget:     fetcher.BudgetSmall,
		ToolResultLimit: orchestrator.ToolResultLimitDefault,
	})
	if err != nil {
		return "", models.Usage{}, err
	}

	out.Usage.EstimatedCostUSD = provider.Cost(mc.ModelID, out.Usage.InputTokens, out.Usage.OutputTokens)
	return out.Content, out.Usage, nil
}

// extractThenGenerate is the two-stage hybrid: a capable model extracts the
// product record through the tool loop, then the mini model fills the
// template. Stage usage is preserved in the breakdown.
func (p *Pipeline) extractThenGenerate(ctx context.Context, extractClient provider.Chat, extractModelID string, req models.TemplateRequest) (string, models.Usage, error) {
	productJSON, extractUsage, err := p.extractWithModel(ctx, extractClient, extractModelID, req.ProductURL)
	if err != nil {
		return "", models.Usage{}, err
	}

	content, genUsage, err := p.generateWithMini(ctx, req.EmailTemplate, productJSON, req.CustomPrompt)
	if err != nil {
		return "", models.Usage{}, err
	}

	total := extractUsage.Add(genUsage)
	total.Breakdown = map[string]*models.Usage{
		"extraction": &extractUsage,
		"generation": &genUsage,
	}

	p.logger.Info("hybrid generation complete",
		"extract_model", extractModelID,
		"generate_model", miniModel,
		"total_cost_usd", total.EstimatedCostUSD)

	return content, total, nil
}

// manualExtractRefineGenerate is the cheapest strategy: heuristic
// extraction, mini refinement, mini generation.
func (p *Pipeline) manualExtractRefineGenerate(ctx context.Context, req models.TemplateRequest) (string, models.Usage, error) {
	raw, err := p.ExtractManual(ctx, req.ProductURL, req.CSSSelector)
	if err != nil {
		return "", models.Usage{}, err
	}

	productJSON, refineUsage := p.refineWithMini(ctx, raw, req.ProductURL)

	content, genUsage, err := p.generateWithMini(ctx, req.EmailTemplate, productJSON, req.CustomPrompt)
	if err != nil {
		return "", models.Usage{}, err
	}

	total := refineUsage.Add(genUsage)
	total.Breakdown = map[string]*models.Usage{
		"refinement": &refineUsage,
		"generation": &genUsage,
	}

	p.logger.Info("manual hybrid generation complete",
		"refine_model", miniModel,
		"generate_model", miniModel,
		"total_cost_usd", total.EstimatedCostUSD)

	return content, total, nil
}

// ExtractManual fetches the page and runs the heuristic extractor. An
// optional CSS selector scopes extraction to the matched elements.
func (p *Pipeline) ExtractManual(ctx context.Context, productURL, cssSelector string) (*models.Product, error) {
	res, err := p.fetch.Fetch(ctx, productURL, fetcher.BudgetLarge)
	if err != nil {
		return nil, models.NewGenError(models.ErrCodeFetch,
			"failed to fetch product page: "+err.Error(), err)
	}

	html := res.Body
	if sel := strings.TrimSpace(cssSelector); sel != "" {
		scoped, err := cleaner.ApplyCSSSelector(html, sel)
		if err != nil {
			p.logger.Warn("css selector rejected, using full page", "selector", sel, "error", err)
		} else {
			html = scoped
		}
	}

	return extractor.Extract(html, productURL, extractor.Options{}), nil
}

// extractWithModel runs the extraction prompt through the tool loop and
// parses the product record from the response.
func (p *Pipeline) extractWithModel(ctx context.Context, client provider.Chat, modelID, productURL string) (string, models.Usage, error) {
	_, jsonCapable := client.(*provider.OpenAI)

	loop := orchestrator.New(client, p.fetch, p.clean, p.logger)
	out, err := loop.Run(ctx, orchestrator.Params{
		Model:           modelID,
		Prompt:          buildExtractionPrompt(productURL),
		MaxOutputTokens: extractionMaxTokens,
		MaxIterations:   orchestrator.MaxExtractionIterations,
		FetchBudget:     fetcher.BudgetSmall,
		ToolResultLimit: orchestrator.ToolResultLimitSmall,
		JSONResponse:    jsonCapable,
	})
	if err != nil {
		return "", models.Usage{}, err
	}

	span, ok := jsonSpan(out.Content)
	if !ok {
		return "", models.Usage{}, models.NewGenError(models.ErrCodeExtraction,
			"model did not return a JSON product record", nil)
	}

	usage := out.Usage
	usage.EstimatedCostUSD = provider.Cost(modelID, usage.InputTokens, usage.OutputTokens)

	p.logger.Info("llm extraction complete",
		"model", modelID,
		"tokens", usage.TotalTokens,
		"cost_usd", usage.EstimatedCostUSD)

	return span, usage, nil
}

// refineWithMini cleans the heuristic record. A parse failure falls back to
// the raw record rather than failing the pipeline.
func (p *Pipeline) refineWithMini(ctx context.Context, raw *models.Product, productURL string) (string, models.Usage) {
	res, err := p.openai.Chat(ctx, provider.ChatRequest{
		Model: miniModel,
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: buildRefinementPrompt(raw, productURL)},
		},
		MaxOutputTokens: refinementMaxTokens,
		JSONResponse:    true,
	})
	if err != nil {
		p.logger.Warn("refinement failed, using raw extraction", "error", err)
		return rawRecordJSON(raw), models.Usage{}
	}

	span, ok := jsonSpan(res.Content)
	if !ok {
		p.logger.Warn("refinement returned no JSON, using raw extraction")
		return rawRecordJSON(raw), res.Usage
	}
	return span, res.Usage
}

// generateWithMini fills the template with the extracted record.
func (p *Pipeline) generateWithMini(ctx context.Context, emailTemplate, productJSON, customPrompt string) (string, models.Usage, error) {
	mc := provider.Lookup(miniModel)

	res, err := p.openai.Chat(ctx, provider.ChatRequest{
		Model: mc.ModelID,
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: buildGenerationPrompt(emailTemplate, productJSON, customPrompt)},
		},
		MaxOutputTokens: mc.MaxOutputTokens,
	})
	if err != nil {
		return "", models.Usage{}, err
	}

	return res.Content, res.Usage, nil
}

// GenerateText runs the plain-text email strategy.
func (p *Pipeline) GenerateText(ctx context.Context, req models.TextEmailRequest) (string, models.Usage, error) {
	mc := provider.Lookup(req.Model)
	if err := p.CheckKeys(mc); err != nil {
		return "", models.Usage{}, err
	}

	businessInfo, guidelines := p.normalizeDocuments(req.BusinessInfo, req.EmailGuidelines)
	p.logger.Debug("text email documents normalized",
		"model", mc.ModelID,
		"est_input_tokens", cleaner.EstimateTokens(businessInfo)+cleaner.EstimateTokens(guidelines))

	start := time.Now()
	var (
		res *provider.Result
		err error
	)

	switch {
	case mc.Provider == provider.FamilyXAI:
		res, err = p.textChat(ctx, p.xai, mc, businessInfo, guidelines, req.SystemPrompt, req.UserPrompt)
	case mc.Convention == provider.ConventionResponses:
		input := buildTextEmailInput(businessInfo, guidelines, req.SystemPrompt, req.UserPrompt)
		res, err = p.openai.Responses(ctx, mc.ModelID, input, mc.MaxOutputTokens)
	default:
		res, err = p.textChat(ctx, p.openai, mc, businessInfo, guidelines, req.SystemPrompt, req.UserPrompt)
	}
	if err != nil {
		return "", models.Usage{}, err
	}

	usage := res.Usage
	usage.GenerationTimeMs = time.Since(start).Milliseconds()

	p.logger.Info("text email generation complete",
		"model", mc.ModelID,
		"tokens", usage.TotalTokens,
		"cost_usd", usage.EstimatedCostUSD,
		"time_ms", usage.GenerationTimeMs)

	return res.Content, usage, nil
}

func (p *Pipeline) textChat(ctx context.Context, client provider.Chat, mc provider.ModelConfig, businessInfo, guidelines, systemPrompt, userPrompt string) (*provider.Result, error) {
	system, user := buildTextEmailMessages(businessInfo, guidelines, systemPrompt, userPrompt)
	return client.Chat(ctx, provider.ChatRequest{
		Model: mc.ModelID,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: system},
			{Role: provider.RoleUser, Content: user},
		},
		MaxOutputTokens: mc.MaxOutputTokens,
	})
}

// normalizeDocuments converts HTML documents to markdown so the prompts
// stay compact. Markdown input passes through unchanged.
func (p *Pipeline) normalizeDocuments(businessInfo, guidelines string) (string, string) {
	return p.toMarkdownIfHTML(businessInfo), p.toMarkdownIfHTML(guidelines)
}

func (p *Pipeline) toMarkdownIfHTML(doc string) string {
	if !sanitize.LooksLikeHTML(doc) {
		return doc
	}
	md, err := p.clean.ToMarkdown(doc)
	if err != nil || strings.TrimSpace(md) == "" {
		p.logger.Warn("html to markdown conversion failed, using raw document", "error", err)
		return doc
	}
	return md
}

// jsonSpan returns the substring from the first '{' to the last '}'.
func jsonSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	span := s[start : end+1]
	if !json.Valid([]byte(span)) {
		return "", false
	}
	return span, true
}

// rawRecordJSON renders the heuristic record the way the refinement model
// would have, keeping only image URLs.
func rawRecordJSON(raw *models.Product) string {
	record := map[string]any{
		"title":       raw.Title,
		"price":       raw.Price,
		"description": raw.Description,
		"features":    raw.Features,
		"images":      raw.ImageURLs(),
		"url":         raw.URL,
	}
	b, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// looksLikeDocument reports whether html starts with a DOCTYPE or <html>
// root, the parse-success signal recorded in the transcript.
func looksLikeDocument(html string) bool {
	lower := strings.ToLower(strings.TrimSpace(html))
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}
