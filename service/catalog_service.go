package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"sort"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"boulangerie/logging"
	"boulangerie/models"
	"boulangerie/pricing"
	"boulangerie/repository"
	"boulangerie/utils"
)

//go:embed templates/price_list.html
var templateFS embed.FS

var priceListTemplate = template.Must(template.ParseFS(templateFS, "templates/price_list.html"))

// PriceListEntry is one product row of the printed price list
type PriceListEntry struct {
	Name        string
	Description string
	Price       string
	PromoPrice  string
}

// PriceListCategory groups the rows of one category
type PriceListCategory struct {
	Name     string
	Products []PriceListEntry
}

// PriceList is the data rendered by the price list template
type PriceList struct {
	Title       string
	GeneratedAt string
	Categories  []PriceListCategory
}

// CatalogService renders the printable price list
type CatalogService struct {
	products   repository.ProductRepositoryInterface
	chromePath string
	now        func() time.Time
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(products repository.ProductRepositoryInterface, chromePath string) *CatalogService {
	return &CatalogService{
		products:   products,
		chromePath: chromePath,
		now:        time.Now,
	}
}

// detectChromePath returns the configured Chrome/Chromium executable when it
// exists, then falls back to common installation paths
func detectChromePath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// BuildPriceList groups available products by category, both sorted by name
func BuildPriceList(products []models.Product, generatedAt time.Time) PriceList {
	byCategory := make(map[string][]models.Product)
	for _, p := range products {
		if !p.Available {
			continue
		}
		category := p.Category
		if category == "" {
			category = models.DefaultCategory
		}
		byCategory[category] = append(byCategory[category], p)
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	list := PriceList{
		Title:       "Boulangerie",
		GeneratedAt: generatedAt.Format("02/01/2006"),
		Categories:  make([]PriceListCategory, 0, len(names)),
	}
	for _, name := range names {
		group := byCategory[name]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Name < group[j].Name })

		category := PriceListCategory{Name: name}
		for _, p := range group {
			entry := PriceListEntry{
				Name:        p.Name,
				Description: p.Description,
				Price:       utils.FormatEUR(p.Price),
			}
			effective := pricing.EffectiveUnitPrice(p.Price, p.PromoPrice, p.OnPromotion)
			if !effective.Equal(p.Price) {
				entry.PromoPrice = utils.FormatEUR(effective)
			}
			category.Products = append(category.Products, entry)
		}
		list.Categories = append(list.Categories, category)
	}
	return list
}

// RenderHTML renders the price list of available products
func (s *CatalogService) RenderHTML(ctx context.Context) (string, error) {
	available := true
	products, err := s.products.Filter(ctx, models.ProductFilter{
		Available: &available,
		Sort:      models.SortAlphabetical,
	})
	if err != nil {
		return "", fmt.Errorf("failed to load products: %w", err)
	}

	var buf bytes.Buffer
	if err := priceListTemplate.Execute(&buf, BuildPriceList(products, s.now())); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// GeneratePDF prints the price list to an A4 PDF with headless Chrome
func (s *CatalogService) GeneratePDF(ctx context.Context) ([]byte, error) {
	html, err := s.RenderHTML(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
	)
	if chromePath := detectChromePath(s.chromePath); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	} else {
		logging.L().Warnf("⚠️  No Chrome executable found, letting chromedp auto-detect")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	var pdfBuf []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm = 8.27" x 11.69"
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	logging.L().Infof("✓ Price list PDF generated: %d bytes", len(pdfBuf))
	return pdfBuf, nil
}
