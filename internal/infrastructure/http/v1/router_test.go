package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipecost/internal/core/apperror"
	appctx "recipecost/internal/core/context"
	"recipecost/internal/core/id"
	"recipecost/internal/core/tx"
	"recipecost/internal/domain/auth"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/domain/quotation"
	"recipecost/internal/domain/recipe"
	v1 "recipecost/internal/infrastructure/http/v1"
	"recipecost/internal/infrastructure/http/v1/middleware"
	"recipecost/internal/infrastructure/storage/memstore"
	"recipecost/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	t       *testing.T
	router  *gin.Engine
	chilli  id.ID
	vendor  id.ID
	cheaper id.ID
}

func newAPI(t *testing.T, opts ...func(*v1.RouterConfig)) *api {
	t.Helper()
	store := memstore.New()
	materials := rawmaterial.NewService(store.RawMaterials())
	recipes := recipe.NewService(store.Recipes(), store.History(), store.Labour(), store.Packaging(), tx.Passthrough{})
	quotations := quotation.NewService(store.Quotations(), recipes, materials, store, tx.Passthrough{})

	a := &api{t: t, chilli: id.New(), vendor: id.New(), cheaper: id.New()}

	ctx := context.Background()
	require.NoError(t, materials.Upsert(ctx, &rawmaterial.RawMaterial{ID: a.chilli, Code: "RM-CH", Name: "Chilli", UnitID: "kg"}))
	require.NoError(t, materials.RecordPrice(ctx, &rawmaterial.VendorPrice{
		RawMaterialID: a.chilli, VendorID: a.vendor, VendorName: "Spice Co", Price: decimal.NewFromInt(10),
		RecordedAt: time.Now().Add(-2 * time.Hour),
	}))
	require.NoError(t, materials.RecordPrice(ctx, &rawmaterial.VendorPrice{
		RawMaterialID: a.chilli, VendorID: a.cheaper, VendorName: "Budget Spices", Price: decimal.NewFromInt(8),
		RecordedAt: time.Now().Add(-time.Hour),
	}))

	cfg := v1.RouterConfig{
		Logger:       logger.NewNop(),
		Idempotency:  memstore.NewIdempotencyStore(time.Minute),
		Version:      "test",
		RawMaterials: materials,
		Recipes:      recipes,
		Quotations:   quotations,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	a.router = v1.NewRouter(cfg)
	return a
}

type response struct {
	code   int
	header http.Header
	body   map[string]any
	raw    string
}

func (a *api) do(method, path string, body any, headers ...string) response {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	out := response{code: w.Code, header: w.Header(), raw: w.Body.String()}
	if w.Body.Len() > 0 {
		dec := json.NewDecoder(bytes.NewReader(w.Body.Bytes()))
		dec.UseNumber()
		_ = dec.Decode(&out.body)
	}
	return out
}

func num(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	n, ok := v.(json.Number)
	require.True(t, ok, "expected a JSON number, got %T (%v)", v, v)
	return decimal.RequireFromString(n.String())
}

func assertNum(t *testing.T, want string, v any) {
	t.Helper()
	got := num(t, v)
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func obj(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func (a *api) createRecipe() string {
	a.t.Helper()
	res := a.do(http.MethodPost, "/api/v1/recipes", map[string]any{
		"name":      "Masala Mix",
		"code":      "MM-1",
		"batchSize": 100,
		"unitId":    "kg",
		"yield":     90,
		"items":     []map[string]any{a.item(10)},
	}, middleware.HeaderUserName, "Asha")
	require.Equal(a.t, http.StatusCreated, res.code, res.raw)
	return res.body["id"].(string)
}

func (a *api) item(price int) map[string]any {
	return map[string]any{
		"rawMaterialId":   a.chilli.String(),
		"rawMaterialName": "Chilli",
		"quantity":        50,
		"price":           price,
		"vendorId":        a.vendor.String(),
		"vendorName":      "Spice Co",
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/health/live", nil).code)

	ready := a.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, ready.code)
	assert.Equal(t, "disabled", obj(ready.body["checks"])["database"])

	info := a.do(http.MethodGet, "/health/info", nil)
	assert.Equal(t, "memory", info.body["storage"])
}

func TestCatalogRoutes(t *testing.T) {
	a := newAPI(t)

	res := a.do(http.MethodGet, "/api/v1/catalog/raw-materials?search=chil", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	items := list(res.body["items"])
	require.Len(t, items, 1)
	assertNum(t, "8", obj(items[0])["lastPrice"])

	res = a.do(http.MethodGet, "/api/v1/catalog/raw-materials/"+a.chilli.String()+"/vendor-prices", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	prices := list(res.body["items"])
	require.Len(t, prices, 2)
	assert.Equal(t, "Budget Spices", obj(prices[0])["vendorName"])

	res = a.do(http.MethodGet, "/api/v1/catalog/raw-materials/"+id.New().String()+"/vendor-prices", nil)
	assert.Equal(t, http.StatusNotFound, res.code)

	res = a.do(http.MethodGet, "/api/v1/catalog/raw-materials/not-a-uuid/vendor-prices", nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
}

func TestRecipeLifecycle(t *testing.T) {
	a := newAPI(t)
	recipeID := a.createRecipe()

	res := a.do(http.MethodGet, "/api/v1/recipes/"+recipeID, nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "500", res.body["totalRawMaterialCost"])
	assertNum(t, "5.56", obj(res.body["display"])["pricePerUnit"])
	assert.Equal(t, "Asha", res.body["createdBy"])

	// Stale version is rejected.
	res = a.do(http.MethodPut, "/api/v1/recipes/"+recipeID+"/items", map[string]any{
		"version": 7,
		"items":   []map[string]any{a.item(12)},
	})
	assert.Equal(t, http.StatusConflict, res.code, res.raw)
	assert.Equal(t, apperror.CodeConcurrentModification, res.body["code"])

	res = a.do(http.MethodPut, "/api/v1/recipes/"+recipeID+"/items", map[string]any{
		"version": 1,
		"items":   []map[string]any{a.item(12)},
	})
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "600", res.body["totalRawMaterialCost"])
	assertNum(t, "2", res.body["version"])

	res = a.do(http.MethodGet, "/api/v1/recipes/"+recipeID+"/history", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	snaps := list(res.body["items"])
	require.Len(t, snaps, 2)
	assert.Equal(t, recipe.ReasonPriceUpdate, obj(snaps[0])["createdReason"])

	res = a.do(http.MethodPost, "/api/v1/recipes/"+recipeID+"/history/compare", map[string]any{
		"snapshotIds": []string{obj(snaps[1])["id"].(string), obj(snaps[0])["id"].(string)},
	})
	require.Equal(t, http.StatusOK, res.code, res.raw)
	changes := list(res.body["changes"])
	require.Len(t, changes, 1)
	assert.Equal(t, string(recipe.ChangePrice), obj(changes[0])["type"])
	assertNum(t, "10", obj(changes[0])["oldValue"])
	assertNum(t, "12", obj(changes[0])["newValue"])

	res = a.do(http.MethodGet, "/api/v1/recipes?search=masala", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "1", res.body["totalCount"])
}

func TestRecipeValidationReportsEveryField(t *testing.T) {
	a := newAPI(t)

	res := a.do(http.MethodPost, "/api/v1/recipes", map[string]any{
		"name":      "",
		"batchSize": 0,
		"items":     []map[string]any{{"rawMaterialId": "bogus", "quantity": 1, "price": 1}},
	})
	require.Equal(t, http.StatusBadRequest, res.code, res.raw)
	fields := obj(obj(res.body["details"])["fields"])
	assert.Contains(t, fields, "items[0].rawMaterialId")

	res = a.do(http.MethodPost, "/api/v1/recipes", map[string]any{
		"name":      "",
		"batchSize": 0,
		"items":     []map[string]any{},
	})
	require.Equal(t, http.StatusBadRequest, res.code, res.raw)
	fields = obj(obj(res.body["details"])["fields"])
	for _, f := range []string{"name", "batchSize", "unitId", "items"} {
		assert.Contains(t, fields, f)
	}
}

func TestCostBreakdown(t *testing.T) {
	a := newAPI(t)
	recipeID := a.createRecipe()
	base := "/api/v1/recipes/" + recipeID

	res := a.do(http.MethodPut, base+"/labour/production", map[string]any{
		"entries": []map[string]any{
			{"labourerName": "Ravi", "salaryPerDay": 600},
			{"labourerName": "Meena", "salaryPerDay": 400},
		},
	})
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "1000", res.body["totalPerDay"])
	assertNum(t, "10", res.body["ratePerUnit"])

	res = a.do(http.MethodGet, base+"/labour/packing", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "0", res.body["ratePerUnit"])

	res = a.do(http.MethodGet, base+"/labour/cleaning", nil)
	assert.Equal(t, http.StatusBadRequest, res.code)

	// No packaging saved yet: breakdown treats it as zero.
	res = a.do(http.MethodGet, base+"/cost-breakdown", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	display := obj(res.body["display"])
	assertNum(t, "5.56", display["rmCostPerUnit"])
	assertNum(t, "10", display["productionLabourCostPerUnit"])
	assertNum(t, "15.56", display["grandTotalCostPerUnit"])
	assertNum(t, "1400", display["totalBatchCost"])
	assert.Nil(t, res.body["degraded"])

	res = a.do(http.MethodGet, base+"/packaging-costs", nil)
	assert.Equal(t, http.StatusNotFound, res.code)

	res = a.do(http.MethodPut, base+"/packaging-costs", map[string]any{
		"shipperBoxCost": 100, "shipperBoxQty": 25,
	})
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "4", obj(res.body["result"])["shipperBoxCostPerKg"])

	res = a.do(http.MethodGet, base+"/cost-breakdown", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "19.56", obj(res.body["display"])["grandTotalCostPerUnit"])
}

func TestPackagingPreview(t *testing.T) {
	a := newAPI(t)

	res := a.do(http.MethodPost, "/api/v1/costing/packaging/calculate", map[string]any{
		"shipperBoxCost": 50, "shipperBoxQty": 0,
	})
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "0", obj(res.body["result"])["shipperBoxCostPerKg"])

	res = a.do(http.MethodPost, "/api/v1/costing/packaging/calculate", map[string]any{
		"shipperBoxCost": -1,
	})
	assert.Equal(t, http.StatusBadRequest, res.code)
}

func TestQuotationFlow(t *testing.T) {
	a := newAPI(t)
	recipeID := a.createRecipe()
	base := "/api/v1/recipes/" + recipeID

	res := a.do(http.MethodPost, base+"/quotations/preview", map[string]any{"requiredQty": 250})
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "2.5", res.body["scalingFactor"])
	assertNum(t, "1250", res.body["totalRecipeCost"])
	assertNum(t, "5", res.body["perUnitCost"])
	item := obj(list(res.body["items"])[0])
	assertNum(t, "125", item["calculatedQty"])
	assertNum(t, "1250", item["calculatedTotal"])

	// Override picks the cheaper vendor's recorded price.
	res = a.do(http.MethodPost, base+"/quotations/preview", map[string]any{
		"requiredQty": 250,
		"overrides": []map[string]any{{
			"rawMaterialId": a.chilli.String(),
			"vendorId":      a.cheaper.String(),
			"vendorName":    "Budget Spices",
		}},
	})
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "1000", res.body["totalRecipeCost"])

	create := map[string]any{
		"requiredQty": 250,
		"companyName": "Acme Foods",
		"reason":      "Festive order",
		"unit":        "kg",
		"phone":       "+91 98450 00000",
		"email":       "buyer@acme.test",
	}
	first := a.do(http.MethodPost, base+"/quotations", create, middleware.HeaderIdempotencyKey, "quote-1")
	require.Equal(t, http.StatusCreated, first.code, first.raw)
	assert.Equal(t, "pending", first.body["status"])
	number := first.body["number"].(string)
	quotationID := first.body["id"].(string)

	replay := a.do(http.MethodPost, base+"/quotations", create, middleware.HeaderIdempotencyKey, "quote-1")
	require.Equal(t, http.StatusCreated, replay.code, replay.raw)
	assert.Equal(t, number, replay.body["number"])
	assert.Equal(t, "true", replay.header.Get("Idempotent-Replayed"))

	res = a.do(http.MethodGet, base+"/quotations", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "1", res.body["totalCount"])

	res = a.do(http.MethodPut, "/api/v1/quotations/"+quotationID+"/status/approve", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assert.Equal(t, "approved", res.body["status"])

	res = a.do(http.MethodPut, "/api/v1/quotations/"+quotationID+"/status/reject", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.code)
	assert.Equal(t, apperror.CodeInvalidTransition, res.body["code"])

	res = a.do(http.MethodGet, base+"/quotations?status=pending", nil)
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assertNum(t, "0", res.body["totalCount"])

	res = a.do(http.MethodDelete, "/api/v1/quotations/"+quotationID, nil)
	assert.Equal(t, http.StatusNoContent, res.code)

	res = a.do(http.MethodGet, "/api/v1/quotations/"+quotationID, nil)
	assert.Equal(t, http.StatusNotFound, res.code)
}

func TestQuotationStatusRequiresApproverRole(t *testing.T) {
	jwt := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	a := newAPI(t, func(cfg *v1.RouterConfig) {
		cfg.JWTValidator = jwt
		cfg.ApproverRoles = []string{"sales-head"}
	})
	token := func(roles ...string) string {
		signed, _, err := jwt.GenerateAccessToken(appctx.UserContext{UserID: "u-1", DisplayName: "Meera", Roles: roles})
		require.NoError(t, err)
		return "Bearer " + signed
	}

	recipeID := a.createRecipe()
	res := a.do(http.MethodPost, "/api/v1/recipes/"+recipeID+"/quotations", map[string]any{
		"requiredQty": 100,
		"companyName": "Acme Foods",
		"reason":      "Festive order",
		"unit":        "kg",
		"phone":       "+91 98450 00000",
		"email":       "buyer@acme.test",
	})
	require.Equal(t, http.StatusCreated, res.code, res.raw)
	path := "/api/v1/quotations/" + res.body["id"].(string) + "/status/approve"

	res = a.do(http.MethodPut, path, nil)
	assert.Equal(t, http.StatusUnauthorized, res.code, res.raw)

	res = a.do(http.MethodPut, path, nil, "Authorization", token("costing"))
	assert.Equal(t, http.StatusForbidden, res.code, res.raw)

	res = a.do(http.MethodPut, path, nil, "Authorization", token("sales-head"))
	require.Equal(t, http.StatusOK, res.code, res.raw)
	assert.Equal(t, "approved", res.body["status"])
}

func TestQuotationCreateValidation(t *testing.T) {
	a := newAPI(t)
	recipeID := a.createRecipe()
	path := fmt.Sprintf("/api/v1/recipes/%s/quotations", recipeID)

	res := a.do(http.MethodPost, path, map[string]any{
		"requiredQty": 0,
		"email":       "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, res.code, res.raw)
	fields := obj(obj(res.body["details"])["fields"])
	for _, f := range []string{"companyName", "reason", "unit", "phone", "email"} {
		assert.Contains(t, fields, f)
	}
	assert.Equal(t, "email is not valid", fields["email"])

	meta := map[string]any{
		"companyName": "Acme Foods",
		"reason":      "Festive order",
		"unit":        "kg",
		"phone":       "+91 98450 00000",
		"email":       "Bob Smith <bob@example.com>",
		"requiredQty": 100,
	}
	res = a.do(http.MethodPost, path, meta)
	require.Equal(t, http.StatusBadRequest, res.code, res.raw)
	fields = obj(obj(res.body["details"])["fields"])
	assert.Equal(t, "email is not valid", fields["email"])

	meta["email"] = "bob@example.com"
	meta["requiredQty"] = 0
	res = a.do(http.MethodPost, path, meta)
	require.Equal(t, http.StatusBadRequest, res.code, res.raw)
	fields = obj(obj(res.body["details"])["fields"])
	assert.Contains(t, fields, "quantity")
	assert.NotContains(t, fields, "email")
}
