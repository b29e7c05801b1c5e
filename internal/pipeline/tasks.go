package pipeline

import "github.com/maxkimambo/prodcrew/internal/taskgraph"

// Task IDs of the default product research crew.
const (
	TaskTrendDiscovery     = "trend_discovery"
	TaskMarketAnalysis     = "market_analysis"
	TaskCompetitorAnalysis = "competitor_analysis"
	TaskAliExpressSourcing = "aliexpress_sourcing"
	TaskAmazonPricing      = "amazon_pricing"
	TaskReviewAnalysis     = "review_analysis"
	TaskTrendValidation    = "trend_validation"
	TaskDuplicateCheck     = "duplicate_check"
	TaskPricingStrategy    = "pricing_strategy"
	TaskProductScoring     = "product_scoring"
	TaskFinalDecision      = "final_decision"
	TaskShopifyTheme       = "shopify_theme"
	TaskProductPage        = "product_page"
	TaskLandingPage        = "landing_page"
	TaskSEOOptimization    = "seo_optimization"
	TaskFinalReport        = "final_report"
)

// Definition is a task graph plus the roles some of its tasks play.
type Definition struct {
	Tasks []taskgraph.TaskSpec `yaml:"tasks"`
	// FinalTask provides the run summary when it succeeds
	FinalTask string `yaml:"final_task"`
	// DecisionTask carries the structured is_approved decisions
	DecisionTask string `yaml:"decision_task"`
	// ScoringTask lists scored product candidates
	ScoringTask string `yaml:"scoring_task"`
}

// DefaultDefinition returns the built-in product research crew.
func DefaultDefinition() Definition {
	return Definition{
		Tasks:        DefaultTasks(),
		FinalTask:    TaskFinalReport,
		DecisionTask: TaskFinalDecision,
		ScoringTask:  TaskProductScoring,
	}
}

// DefaultTasks returns the sixteen research, sourcing, decision, storefront
// and reporting tasks in declaration order.
func DefaultTasks() []taskgraph.TaskSpec {
	return []taskgraph.TaskSpec{
		{
			ID:             TaskTrendDiscovery,
			Executor:       "trend_scout",
			Description:    "Identify 3 to 5 trending consumer products with viral potential from social and search signals. Include engagement metrics and an estimated weight category for each.",
			ExpectedOutput: "A list of trending products with name, category, engagement metrics and why each is trending.",
		},
		{
			ID:             TaskMarketAnalysis,
			Executor:       "market_analyzer",
			Description:    "Analyze the market for each trending product: market size, competition level, target demographics and target geographies.",
			ExpectedOutput: "Per product: market_size, competition_level, target_demographics, target_geographies.",
			Dependencies:   []string{TaskTrendDiscovery},
		},
		{
			ID:             TaskCompetitorAnalysis,
			Executor:       "competitor_intel",
			Description:    "Assess competitors selling each product: number of competitors, market saturation and differentiation opportunities.",
			ExpectedOutput: "Per product: number_of_competitors, saturation, opportunities.",
			Dependencies:   []string{TaskTrendDiscovery, TaskMarketAnalysis},
		},
		{
			ID:             TaskAliExpressSourcing,
			Executor:       "aliexpress_scraper",
			Description:    "Find suppliers for each product with unit cost, shipping cost and shipping time.",
			ExpectedOutput: "Per product: supplier, cost_price, shipping_cost, shipping_time_days.",
			Dependencies:   []string{TaskTrendDiscovery, TaskMarketAnalysis},
		},
		{
			ID:             TaskAmazonPricing,
			Executor:       "amazon_scraper",
			Description:    "Collect retail prices and ratings of comparable listings for each product.",
			ExpectedOutput: "Per product: competitor prices, price range, average rating.",
			Dependencies:   []string{TaskTrendDiscovery, TaskMarketAnalysis},
		},
		{
			ID:             TaskReviewAnalysis,
			Executor:       "review_analyzer",
			Description:    "Summarize customer review sentiment for each product, listing pros, cons and red flags.",
			ExpectedOutput: "Per product: sentiment score, pros, cons, red_flags.",
			Dependencies:   []string{TaskAmazonPricing, TaskAliExpressSourcing},
		},
		{
			ID:             TaskTrendValidation,
			Executor:       "trend_validator",
			Description:    "Validate each trend with search interest data and predict its longevity.",
			ExpectedOutput: "Per product: trend score, trend_direction, trend_longevity_prediction.",
			Dependencies:   []string{TaskTrendDiscovery, TaskMarketAnalysis},
		},
		{
			ID:             TaskDuplicateCheck,
			Executor:       "duplicate_checker",
			Description:    "Check whether each product was already researched in a previous run.",
			ExpectedOutput: "Per product: is_duplicate, similar existing product, similarity score.",
			Dependencies:   []string{TaskTrendDiscovery},
		},
		{
			ID:             TaskPricingStrategy,
			Executor:       "pricing_strategist",
			Description:    "Calculate the retail price for each product from total cost and competitor prices, keeping a healthy margin.",
			ExpectedOutput: "Per product: total_cost, suggested_retail_price, profit_margin_percent, profit_amount.",
			Dependencies:   []string{TaskAliExpressSourcing, TaskAmazonPricing},
		},
		{
			ID:          TaskProductScoring,
			Executor:    "scoring_engine",
			Description: "Score every product from 0 to 100 on trend, profit, competition, demand, quality and shipping. overall_score = trend*0.25 + profit*0.25 + (100-competition)*0.15 + demand*0.20 + quality*0.10 + shipping*0.05.",
			ExpectedOutput: `JSON: {"products": [{"product_name": "...", "category": "...", "scores": {"trend_score": 0, "profit_score": 0, ` +
				`"competition_score": 0, "demand_score": 0, "quality_score": 0, "shipping_score": 0}, "overall_score": 0, "profit_margin_percent": 0}]}`,
			Dependencies: []string{
				TaskTrendDiscovery, TaskMarketAnalysis, TaskCompetitorAnalysis, TaskAliExpressSourcing,
				TaskAmazonPricing, TaskReviewAnalysis, TaskTrendValidation, TaskPricingStrategy,
			},
		},
		{
			ID:             TaskFinalDecision,
			Executor:       "decision_maker",
			Description:    "Decide GO or NO-GO for each product. Approve when overall score is at least 60 and margin at least 20%, the trend is not dead and the product is not a duplicate. Missing data passes.",
			ExpectedOutput: `JSON keyed by product name: {"Product": {"is_approved": true, "rejection_reason": null}}`,
			Dependencies:   []string{TaskProductScoring, TaskReviewAnalysis, TaskDuplicateCheck, TaskPricingStrategy},
		},
		{
			ID:             TaskShopifyTheme,
			Executor:       "shopify_theme_builder",
			Description:    "Propose a storefront theme for the approved products: layout, colors and typography.",
			ExpectedOutput: "Theme name, color palette, fonts and section layout.",
			Dependencies:   []string{TaskFinalDecision},
		},
		{
			ID:             TaskProductPage,
			Executor:       "product_page_creator",
			Description:    "Write product page content for each approved product.",
			ExpectedOutput: "Per product: title, description, bullet points, price.",
			Dependencies:   []string{TaskFinalDecision, TaskShopifyTheme},
		},
		{
			ID:             TaskLandingPage,
			Executor:       "landing_page_builder",
			Description:    "Draft a landing page for the strongest approved product.",
			ExpectedOutput: "Headline, hero copy, benefits and call to action.",
			Dependencies:   []string{TaskFinalDecision, TaskProductPage},
		},
		{
			ID:             TaskSEOOptimization,
			Executor:       "seo_optimizer",
			Description:    "Optimize the product pages for search.",
			ExpectedOutput: "Per product: meta title, meta description, keywords, URL handle.",
			Dependencies:   []string{TaskProductPage},
		},
		{
			ID:          TaskFinalReport,
			Executor:    "report_generator",
			Description: "Write the final research report covering every product, its scores, the decision and the storefront work.",
			ExpectedOutput: "An executive summary followed by one section per product.",
			Dependencies: []string{
				TaskTrendDiscovery, TaskMarketAnalysis, TaskCompetitorAnalysis, TaskAliExpressSourcing,
				TaskAmazonPricing, TaskReviewAnalysis, TaskTrendValidation, TaskDuplicateCheck,
				TaskProductScoring, TaskFinalDecision, TaskShopifyTheme, TaskProductPage,
				TaskLandingPage, TaskSEOOptimization,
			},
		},
	}
}
