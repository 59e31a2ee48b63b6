package catalog

import (
	"context"
	"errors"
	"strings"
)

// StaticProvider serves a fixed in-memory product list.
type StaticProvider struct {
	products []Product
}

func NewStaticProvider(products []Product) *StaticProvider {
	return &StaticProvider{products: products}
}

// Menu is the default Sabor Vivo menu.
func Menu() []Product {
	return []Product{
		{
			ID:          "feijoada-completa",
			Name:        "Feijoada Completa",
			Category:    "pratos",
			Price:       4590,
			Description: "Feijão preto com carnes nobres, acompanha arroz, couve e farofa crocante.",
			Image:       "/img/prato-feijoada.jpg",
			Highlight:   true,
		},
		{
			ID:          "moqueca-baiana",
			Name:        "Moqueca Baiana",
			Category:    "pratos",
			Price:       6890,
			Description: "Peixe fresco ao leite de coco e dendê, pimentões e coentro, servida no barro.",
			Image:       "/img/prato-moqueca.jpg",
			Highlight:   true,
		},
		{
			ID:          "picanha-na-brasa",
			Name:        "Picanha na Brasa",
			Category:    "pratos",
			Price:       7990,
			Description: "Picanha grelhada no ponto, com vinagrete, mandioca frita e arroz biro-biro.",
			Image:       "/img/prato-picanha.jpg",
		},
		{
			ID:          "bobo-de-camarao",
			Name:        "Bobó de Camarão",
			Category:    "pratos",
			Price:       6490,
			Description: "Creme de mandioca com camarões salteados e toque de dendê.",
			Image:       "/img/prato-bobo.jpg",
		},
		{
			ID:          "caipirinha-classica",
			Name:        "Caipirinha Clássica",
			Category:    "bebidas",
			Price:       2590,
			Description: "Cachaça artesanal, limão taiti e açúcar demerara.",
			Image:       "/img/bebida-caipirinha.jpg",
			Highlight:   true,
		},
		{
			ID:          "suco-de-cupuacu",
			Name:        "Suco de Cupuaçu",
			Category:    "bebidas",
			Price:       1290,
			Description: "Polpa amazônica batida na hora, adoçada no ponto.",
			Image:       "/img/bebida-cupuacu.jpg",
		},
		{
			ID:          "agua-de-coco",
			Name:        "Água de Coco",
			Category:    "bebidas",
			Price:       890,
			Description: "Servida gelada, direto do coco verde.",
			Image:       "/img/bebida-coco.jpg",
		},
		{
			ID:          "pudim-de-leite",
			Name:        "Pudim de Leite",
			Category:    "sobremesas",
			Price:       1890,
			Description: "Receita de família com calda de caramelo escuro.",
			Image:       "/img/sobremesa-pudim.jpg",
			Highlight:   true,
		},
		{
			ID:          "acai-na-tigela",
			Name:        "Açaí na Tigela",
			Category:    "sobremesas",
			Price:       2290,
			Description: "Açaí batido com banana, granola e mel.",
			Image:       "/img/sobremesa-acai.jpg",
		},
	}
}

func (p *StaticProvider) All(context.Context) ([]Product, error) {
	return append([]Product(nil), p.products...), nil
}

func (p *StaticProvider) GetByID(_ context.Context, id string) (*Product, error) {
	for _, product := range p.products {
		if product.ID == id {
			found := product
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (p *StaticProvider) GetByCategory(_ context.Context, category string) ([]Product, error) {
	var matches []Product
	for _, product := range p.products {
		if product.Category == category {
			matches = append(matches, product)
		}
	}
	return matches, nil
}

func (p *StaticProvider) Search(ctx context.Context, query string) ([]Product, error) {
	text := strings.ToLower(strings.TrimSpace(query))
	if text == "" {
		return p.All(ctx)
	}

	var matches []Product
	for _, product := range p.products {
		if strings.Contains(strings.ToLower(product.Name), text) ||
			strings.Contains(strings.ToLower(product.Description), text) ||
			strings.Contains(strings.ToLower(product.Category), text) {
			matches = append(matches, product)
		}
	}
	return matches, nil
}

func (p *StaticProvider) Featured(_ context.Context, limit int) ([]Product, error) {
	var highlights, rest []Product
	for _, product := range p.products {
		if product.Highlight {
			highlights = append(highlights, product)
		} else {
			rest = append(rest, product)
		}
	}
	return backfill(highlights, rest, limit), nil
}

func (p *StaticProvider) Related(ctx context.Context, id string, limit int) ([]Product, error) {
	current, err := p.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return p.Featured(ctx, limit)
	}
	if err != nil {
		return nil, err
	}

	var sameCategory, extras []Product
	for _, product := range p.products {
		if product.ID == id {
			continue
		}
		if product.Category == current.Category {
			sameCategory = append(sameCategory, product)
		} else {
			extras = append(extras, product)
		}
	}
	return backfill(sameCategory, extras, limit), nil
}

// backfill takes up to limit products, preferring the first list and
// topping up from the second.
func backfill(preferred, rest []Product, limit int) []Product {
	if limit <= 0 {
		return []Product{}
	}
	if len(preferred) >= limit {
		return append([]Product(nil), preferred[:limit]...)
	}

	out := append([]Product(nil), preferred...)
	missing := limit - len(out)
	if missing > len(rest) {
		missing = len(rest)
	}
	return append(out, rest[:missing]...)
}
