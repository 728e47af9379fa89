package domain

// OrderBook representa el libro de órdenes de un token.
type OrderBook struct {
	TokenID  string
	Market   string // condition ID al que pertenece el token
	TickSize string
	Bids     []BookEntry // ordenados mayor a menor precio
	Asks     []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid devuelve el mejor precio de compra, 0 si no hay bids.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk devuelve el mejor precio de venta, 0 si no hay asks.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// Spread es ask - bid, 0 si falta algún lado.
func (ob OrderBook) Spread() float64 {
	bid, ask := ob.BestBid(), ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}

// FillLevel recorre los asks de menor a mayor sumando size × price hasta
// cubrir amount USDC. Devuelve el precio del último nivel necesario y la
// profundidad acumulada; ok es false si el book no alcanza.
func (ob OrderBook) FillLevel(amount float64) (price, depth float64, ok bool) {
	for _, a := range ob.Asks {
		depth += a.Size * a.Price
		if depth >= amount {
			return a.Price, depth, true
		}
	}
	return 0, depth, false
}

// Summary reduce el book a lo que se guarda en un snapshot.
func (ob OrderBook) Summary() BookSummary {
	return BookSummary{
		Market:  ob.Market,
		BestBid: ob.BestBid(),
		BestAsk: ob.BestAsk(),
		Spread:  ob.Spread(),
		Levels:  len(ob.Asks),
	}
}
