package service

import (
	"fmt"
	"html/template"

	"github.com/previewcap/previewcap/internal/markdown"
	"github.com/previewcap/previewcap/internal/model"
	"github.com/previewcap/previewcap/internal/repository"
)

type PageService struct {
	pages  repository.PageRepository
	parser *markdown.Parser
}

func NewPageService(pages repository.PageRepository) *PageService {
	return &PageService{
		pages:  pages,
		parser: markdown.NewParser(),
	}
}

func (s *PageService) ByID(id string) (*model.Page, error) {
	return s.pages.ByID(id)
}

func (s *PageService) BySlug(slug string) (*model.Page, error) {
	return s.pages.BySlug(slug)
}

// RenderBody converts the page's markdown body to HTML.
func (s *PageService) RenderBody(page *model.Page) (template.HTML, error) {
	html, err := s.parser.Parse([]byte(page.Body))
	if err != nil {
		return "", fmt.Errorf("failed to render page body: %w", err)
	}
	return template.HTML(html), nil
}
