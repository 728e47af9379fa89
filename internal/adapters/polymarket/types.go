package polymarket

import "encoding/json"

// DTOs raw de la API de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaEvent es un evento de GET /events. Cada evento agrupa uno o más
// mercados; los de expiración corta tienen uno solo.
type gammaEvent struct {
	ID      string             `json:"id"`
	Ticker  string             `json:"ticker"`
	Slug    string             `json:"slug"`
	Title   string             `json:"title"`
	EndDate string             `json:"endDate"`
	Closed  bool               `json:"closed"`
	Markets []gammaEventMarket `json:"markets"`
}

// gammaEventMarket es un mercado dentro de un evento.
// clobTokenIds llega como string con un array JSON dentro ("[\"123\",\"456\"]");
// se guarda crudo y se parsea en el mapping para que un mercado mal formado
// no rompa el decode del listado entero.
type gammaEventMarket struct {
	ID           string          `json:"id"`
	ConditionID  string          `json:"conditionId"`
	Question     string          `json:"question"`
	EndDate      string          `json:"endDate"`
	ClobTokenIDs json.RawMessage `json:"clobTokenIds"`
	NegRisk      bool            `json:"negRisk"`
}

// --- CLOB API ---

// midpointResponse es la respuesta de GET /midpoint.
type midpointResponse struct {
	Mid json.Number `json:"mid"`
}

// priceResponse es la respuesta de GET /price.
type priceResponse struct {
	Price json.Number `json:"price"`
}

// orderBookRequest es un item del body de POST /books.
type orderBookRequest struct {
	TokenID string `json:"token_id"`
}

// orderBookResponse es la respuesta de GET /book y de cada item de POST /books.
type orderBookResponse struct {
	Market   string         `json:"market"`
	AssetID  string         `json:"asset_id"`
	TickSize string         `json:"tick_size"`
	Bids     []bookEntryRaw `json:"bids"`
	Asks     []bookEntryRaw `json:"asks"`
}

// bookEntryRaw es un nivel de precio raw de la API (strings para mayor precisión).
type bookEntryRaw struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// negRiskResponse es la respuesta de GET /neg-risk.
type negRiskResponse struct {
	NegRisk bool `json:"neg_risk"`
}
