package grocery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ajith-kumar99/voicedesk/pkg/lookup"
	"github.com/ajith-kumar99/voicedesk/pkg/model"
	"github.com/ajith-kumar99/voicedesk/pkg/persist"
	"github.com/ajith-kumar99/voicedesk/pkg/refdata"
	"github.com/ajith-kumar99/voicedesk/pkg/session"
	"github.com/ajith-kumar99/voicedesk/pkg/tool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"
)

// Name is the agent name that enables this tool
const Name = "grocery"

const datasetCatalog = "catalog"

// defaultRecipes maps a dish to the catalog items it needs
var defaultRecipes = map[string][]string{
	"peanut butter sandwich": {"bread", "peanut butter"},
	"pasta for two":          {"pasta", "tomato sauce", "olive oil"},
	"eggs and toast":         {"eggs", "bread", "butter"},
}

// Tool is the grocery ordering front end: a catalog, a cart and orders
type Tool struct {
	recipesFile string

	client  *tool.Client
	catalog []*model.Product
	recipes map[string][]string
	matcher lookup.Matcher[*model.Product]
	cart    *session.Cart
}

type Option func(*Tool)

// WithMatcher replaces the catalog matching strategy
func WithMatcher(m lookup.Matcher[*model.Product]) Option {
	return func(t *Tool) {
		t.matcher = m
	}
}

// WithRecipesFile sets the YAML recipe file, as the --recipes-file flag does
func WithRecipesFile(path string) Option {
	return func(t *Tool) {
		t.recipesFile = path
	}
}

// New creates the grocery tool
func New(opts ...Option) *Tool {
	t := &Tool{
		matcher: lookup.Fuzzy[*model.Product]{},
		cart:    session.NewCart(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tool) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "recipes-file",
			Usage:       "YAML file mapping dish names to catalog items",
			Sources:     cli.EnvVars("VOICEDESK_RECIPES_FILE"),
			Destination: &t.recipesFile,
		},
	}
}

// Init loads the catalog and the recipe map
func (t *Tool) Init(ctx context.Context, client *tool.Client) (bool, error) {
	if client.Agent != Name {
		return false, nil
	}
	t.client = client

	// an unavailable catalog degrades to an empty one
	catalog, _, err := refdata.LoadRecords[*model.Product](ctx, client.Loader, datasetCatalog)
	if err != nil {
		client.Log().WarnContext(ctx, "no catalog, starting with empty catalog", "error", err)
	}
	t.catalog = catalog

	t.recipes = defaultRecipes
	if t.recipesFile != "" {
		recipes, err := loadRecipes(t.recipesFile)
		if err != nil {
			return false, err
		}
		t.recipes = recipes
	}

	return true, nil
}

// loadRecipes reads a YAML map of dish name to item names
func loadRecipes(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read recipes file", goerr.V("path", path))
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "failed to parse recipes file", goerr.V("path", path))
	}

	recipes := make(map[string][]string, len(raw))
	for dish, items := range raw {
		recipes[lookup.Normalize(dish)] = items
	}
	return recipes, nil
}

func (t *Tool) Prompt(ctx context.Context) string {
	return `### Grocery ordering

You are a friendly food and grocery ordering assistant for a small store. Help the user build a cart by voice and place the order.
- Explain that you can add items, list the cart, change quantities and place the order.
- Ask a short question when size, quantity or brand is ambiguous.
- For "ingredients for X" requests use add_recipe; get_recipes lists the known dishes.
- Confirm every cart change. Never read out file names, identifiers of internal files, or JSON.`
}

func (t *Tool) Spec() *genai.Tool {
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "get_catalog",
				Description: "Return the product catalog of the store",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
			{
				Name:        "add_item",
				Description: "Add an item to the cart by name. An exact catalog name wins over a partial or tag match. Returns a short status.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"item_name": {Type: genai.TypeString, Description: "Product name or keyword"},
						"qty":       {Type: genai.TypeInteger, Description: "Quantity to add (default: 1)"},
						"note":      {Type: genai.TypeString, Description: "Optional note such as a brand or size preference"},
					},
					Required: []string{"item_name"},
				},
			},
			{
				Name:        "remove_item",
				Description: "Remove a quantity of an item from the cart. A quantity of 0, or one not smaller than the cart quantity, removes the item entirely.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"item_name": {Type: genai.TypeString, Description: "Name of the item in the cart"},
						"qty":       {Type: genai.TypeInteger, Description: "Quantity to remove (default: 0, remove all)"},
					},
					Required: []string{"item_name"},
				},
			},
			{
				Name:        "list_cart",
				Description: "Return the cart: items with quantity, unit price and line total, and the order total",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
			{
				Name:        "add_recipe",
				Description: "Add the ingredients of a known dish to the cart, one of each per serving",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"recipe_name": {Type: genai.TypeString, Description: "Dish name, e.g. pasta for two"},
						"servings":    {Type: genai.TypeInteger, Description: "Number of servings (default: 1)"},
					},
					Required: []string{"recipe_name"},
				},
			},
			{
				Name:        "place_order",
				Description: "Place the order for the current cart and clear it. Returns a confirmation with the order id.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"customer_name": {Type: genai.TypeString, Description: "Customer name (default: Guest)"},
						"address":       {Type: genai.TypeString, Description: "Delivery address"},
						"note":          {Type: genai.TypeString, Description: "Note for the store"},
					},
				},
			},
			{
				Name:        "get_recipes",
				Description: "List the dishes add_recipe knows",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
			},
		},
	}
}

func (t *Tool) Execute(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	switch fc.Name {
	case "get_catalog":
		return tool.Value(fc, "catalog", t.catalog)
	case "add_item":
		return t.executeAddItem(ctx, fc)
	case "remove_item":
		return t.executeRemoveItem(ctx, fc)
	case "list_cart":
		return tool.Object(fc, t.cart.Summary())
	case "add_recipe":
		return t.executeAddRecipe(ctx, fc)
	case "place_order":
		return t.executePlaceOrder(ctx, fc)
	case "get_recipes":
		return tool.Value(fc, "recipes", t.recipeNames())
	default:
		return nil, goerr.Wrap(tool.ErrToolNotFound, "unknown function", goerr.V("name", fc.Name))
	}
}

func (t *Tool) executeAddItem(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		ItemName string   `json:"item_name"`
		Qty      tool.Int `json:"qty"`
		Note     string   `json:"note"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}
	return tool.Result(fc, t.addItem(ctx, in.ItemName, int(in.Qty), in.Note)), nil
}

// addItem resolves name against the catalog and merges it into the cart
func (t *Tool) addItem(ctx context.Context, name string, qty int, note string) string {
	if strings.TrimSpace(name) == "" {
		return "No item specified."
	}

	product, ok := lookup.MatchExact(name, t.catalog)
	if !ok {
		product, ok = t.matcher.Match(name, t.catalog)
	}
	if !ok {
		t.client.Log().InfoContext(ctx, "item not in catalog", "query", name)
		return fmt.Sprintf("Sorry, I couldn't find '%s' in the catalog.", name)
	}

	before := t.cart.Len()
	entry := t.cart.UpsertLineEntry(product.ItemID(), product.Name, qty, product.Price, note)
	if t.cart.Len() == before {
		return fmt.Sprintf("Added %d more %s to your cart.", max(1, qty), product.Name)
	}
	return fmt.Sprintf("Added %d x %s to your cart.", entry.Quantity, entry.Name)
}

func (t *Tool) executeRemoveItem(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		ItemName string   `json:"item_name"`
		Qty      tool.Int `json:"qty"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.ItemName) == "" {
		return tool.Result(fc, "No item specified to remove."), nil
	}

	res, err := t.cart.RemoveLineEntry(in.ItemName, int(in.Qty))
	if err != nil {
		if errors.Is(err, model.ErrEntityNotFound) {
			return tool.Result(fc, fmt.Sprintf("Item '%s' not found in your cart.", in.ItemName)), nil
		}
		return nil, err
	}

	if res.Deleted {
		return tool.Result(fc, fmt.Sprintf("Removed %s from your cart.", res.Name)), nil
	}
	return tool.Result(fc, fmt.Sprintf("Removed %d of %s. Remaining %d.", res.Removed, res.Name, res.Remaining)), nil
}

func (t *Tool) executeAddRecipe(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		RecipeName string   `json:"recipe_name"`
		Servings   tool.Int `json:"servings"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.RecipeName) == "" {
		return tool.Result(fc, "No recipe specified."), nil
	}

	ingredients, ok := t.recipes[lookup.Normalize(in.RecipeName)]
	if !ok || len(ingredients) == 0 {
		return tool.Result(fc, fmt.Sprintf("Sorry, I don't know the ingredients for '%s'.", in.RecipeName)), nil
	}

	servings := max(1, int(in.Servings))
	added := make([]string, 0, len(ingredients))
	for _, item := range ingredients {
		added = append(added, t.addItem(ctx, item, servings, ""))
	}

	return tool.Result(fc, "Added recipe ingredients to cart: "+strings.Join(added, "; ")), nil
}

func (t *Tool) executePlaceOrder(ctx context.Context, fc genai.FunctionCall) (*genai.FunctionResponse, error) {
	var in struct {
		CustomerName string `json:"customer_name"`
		Address      string `json:"address"`
		Note         string `json:"note"`
	}
	if err := tool.DecodeArgs(fc, &in); err != nil {
		return nil, err
	}

	if t.cart.IsEmpty() {
		return tool.Result(fc, "Your cart is empty."), nil
	}

	logger := t.client.Log()
	summary := t.cart.Summary()
	order := &model.Order{
		CustomerName: strings.TrimSpace(in.CustomerName),
		Address:      strings.TrimSpace(in.Address),
		Items:        summary.Items,
		Total:        summary.Total,
		Note:         strings.TrimSpace(in.Note),
		Status:       model.OrderStatusReceived,
	}
	if order.CustomerName == "" {
		order.CustomerName = "Guest"
	}

	decision, err := t.client.Policy.Check(ctx, model.SnapshotKindOrder, order)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check order policy", "error", err)
		return tool.Result(fc, "Failed to place your order due to a server error."), nil
	}
	if !decision.Allowed() {
		return tool.Result(fc, "Sorry, I can't place this order: "+strings.Join(decision.Deny, "; ")+"."), nil
	}

	id, err := t.client.Persist.Append(ctx, persist.Record{
		Kind:   model.SnapshotKindOrder,
		Status: order.Status,
		Key:    order.CustomerName,
		Build: func(id model.SnapshotID, now time.Time) any {
			order.OrderID = id
			order.Timestamp = now
			return order
		},
	})
	if err != nil {
		// the cart is kept so the user can retry
		logger.ErrorContext(ctx, "failed to save order", "error", err)
		return tool.Result(fc, "Failed to place your order due to a server error."), nil
	}

	t.cart.Clear()
	logger.InfoContext(ctx, "order placed", "order_id", id, "total", order.Total.String())
	return tool.Result(fc, fmt.Sprintf("Order placed. Your order id is %s. We'll send confirmation shortly.", id)), nil
}

func (t *Tool) recipeNames() []string {
	names := make([]string, 0, len(t.recipes))
	for name := range t.recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
