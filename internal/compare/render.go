package compare

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/Houeta/darkside-companion/internal/models"
)

const placeholderImage = "/assets/placeholder.svg"

const descriptionExcerpt = 280

var detailTmpl = template.Must(template.New("detail").Parse(`<div class="selected-card">
  <div id="selected-card-image"><img src="{{.Image}}" alt="{{.Title}}"></div>
  <div id="selected-card-details">
    <h3>{{.Title}}</h3>
    <p><strong>Type:</strong> {{.Type}}</p>
    <p><strong>Vendor:</strong> {{.Vendor}}</p>
  </div>
</div>
<div id="condition-variants-list">
{{- range .Rows}}
  <div class="condition-variant">
    <div class="condition-name">{{.Condition}}</div>
    <div class="condition-price">{{.PriceText}}</div>
    <div class="condition-stock {{.Tier}}">{{.StockText}}</div>
    <div class="condition-action">
    {{- if not .Matched}}
      <button class="btn btn--secondary" disabled>{{.ActionLabel}}</button>
    {{- else if .Disabled}}
      <button class="btn btn--primary" data-variant-id="{{.VariantID}}" disabled>{{.ActionLabel}}</button>
    {{- else}}
      <button class="btn btn--primary" data-variant-id="{{.VariantID}}">{{.ActionLabel}}</button>
    {{- end}}
    </div>
  </div>
{{- end}}
</div>
`))

type detailView struct {
	Title  string
	Image  string
	Type   string
	Vendor string
	Rows   []Row
}

// RenderHTML writes the product card and its condition rows as an HTML fragment.
func RenderHTML(w io.Writer, product *models.Product) error {
	image := product.FeaturedImage.URL
	if image == "" {
		image = placeholderImage
	}

	err := detailTmpl.Execute(w, detailView{
		Title:  product.Title,
		Image:  image,
		Type:   product.Kind(),
		Vendor: product.Vendor,
		Rows:   Rows(product),
	})
	if err != nil {
		return fmt.Errorf("compare.RenderHTML: %w", err)
	}

	return nil
}

// RenderText renders the comparison as Telegram HTML.
func RenderText(product *models.Product) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(product.Title))
	fmt.Fprintf(&b, "Type: %s\nVendor: %s\n", html.EscapeString(product.Kind()), html.EscapeString(product.Vendor))

	if desc := PlainText(product.Description, descriptionExcerpt); desc != "" {
		fmt.Fprintf(&b, "\n<i>%s</i>\n", html.EscapeString(desc))
	}

	b.WriteString("\n")
	for _, row := range Rows(product) {
		fmt.Fprintf(&b, "%s %s: %s, %s\n", tierMark(row), row.Condition, row.PriceText, row.StockText)
	}

	return b.String()
}

// PlainText strips markup from an HTML description and collapses whitespace.
// The result is cut to at most limit runes; limit <= 0 disables the cut.
func PlainText(description string, limit int) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)

	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func tierMark(row Row) string {
	switch {
	case !row.Matched:
		return "▫️"
	case row.Tier == OutOfStock:
		return "🔴"
	case row.Tier == LowStock:
		return "🟡"
	default:
		return "🟢"
	}
}
