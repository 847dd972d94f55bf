package store

// Receipt is issued by a seller for every successful purchase and by a
// factory for every completed manufacturing order.
type Receipt struct {
	ID          string `json:"id"`
	Seller      string `json:"seller"`
	Customer    string `json:"customer"`
	ShoeType    string `json:"shoeType"`
	Discount    bool   `json:"discount"`
	IssuedTick  int    `json:"issuedTick"`
	RequestTick int    `json:"requestTick"`
	AmountSold  int    `json:"amountSold"`
}

// DiscountSchedule tells the manager to put Amount items of ShoeType on
// sale at Tick.
type DiscountSchedule struct {
	ShoeType string `json:"shoeType" yaml:"shoeType"`
	Tick     int    `json:"tick" yaml:"tick"`
	Amount   int    `json:"amount" yaml:"amount"`
}

// PurchaseSchedule tells a customer to buy one ShoeType at Tick.
type PurchaseSchedule struct {
	ShoeType string `json:"shoeType" yaml:"shoeType"`
	Tick     int    `json:"tick" yaml:"tick"`
}
