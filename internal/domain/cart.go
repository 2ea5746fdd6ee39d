package domain

// Locale — язык интерфейса клиента.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleAR Locale = "ar"
)

// DefaultLocale используется, когда сохранённого значения нет.
const DefaultLocale = LocaleEN

func (l Locale) Valid() bool {
	return l == LocaleEN || l == LocaleAR
}

// Product — позиция каталога в том виде, в каком её передаёт витрина.
type Product struct {
	ID        string `json:"id"`
	NameEn    string `json:"name_en"`
	NameAr    string `json:"name_ar"`
	UnitPrice int64  `json:"unit_price"`
}

// CartLine — строка корзины. Количество всегда положительное.
type CartLine struct {
	ProductID string `json:"product_id"`
	NameEn    string `json:"name_en"`
	NameAr    string `json:"name_ar,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// DisplayName returns the localized product name, falling back to English.
func (l CartLine) DisplayName(loc Locale) string {
	if loc == LocaleAR && l.NameAr != "" {
		return l.NameAr
	}
	return l.NameEn
}

func (l CartLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Coordinates — точка на карте (широта, долгота).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}
