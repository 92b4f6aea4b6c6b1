package catalog

import (
	"context"

	"github.com/brunorcoelho/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// StaticSource serves a fixed product list. It backs the demo mode where no
// inventory collaborator is running.
type StaticSource struct {
	products []domain.Product
}

func NewStaticSource(products []domain.Product) *StaticSource {
	out := make([]domain.Product, len(products))
	copy(out, products)
	return &StaticSource{products: out}
}

func (s *StaticSource) Products(context.Context) ([]domain.Product, error) {
	return s.products, nil
}

func DemoProducts() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Smartphone Galaxy", Description: "Smartphone Android com 128GB de armazenamento, câmera de 48MP e tela de 6.1 polegadas.", Price: decimal.RequireFromString("899.99"), Stock: 15},
		{ID: "2", Name: "Notebook Gamer", Description: "Notebook para jogos com processador Intel i7, 16GB RAM, SSD 512GB e placa de vídeo RTX 3060.", Price: decimal.RequireFromString("3299.99"), Stock: 8},
		{ID: "3", Name: "Fone de Ouvido Bluetooth", Description: "Fone de ouvido sem fio com cancelamento de ruído, autonomia de 30 horas.", Price: decimal.RequireFromString("199.99"), Stock: 25},
		{ID: "4", Name: "Tablet 10 polegadas", Description: "Tablet com tela de 10 polegadas, 64GB de armazenamento e suporte a caneta stylus.", Price: decimal.RequireFromString("549.99"), Stock: 12},
		{ID: "5", Name: "Smart TV 55\"", Description: "Smart TV LED 55 polegadas 4K com sistema Android TV e HDR.", Price: decimal.RequireFromString("1899.99"), Stock: 6},
		{ID: "6", Name: "Console de Videogame", Description: "Console de última geração com SSD de 1TB e suporte a jogos em 4K.", Price: decimal.RequireFromString("2499.99"), Stock: 4},
	}
}
