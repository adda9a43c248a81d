// Package naming builds deterministic, human-readable opportunity names.
package naming

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kursadbilgin/opportunity-engine/internal/domain"
)

const (
	PlaceholderOrganization = "{organization}"
	PlaceholderPrincipal    = "{principal}"
)

// GeneratedName is a generated opportunity name and the template token it
// was built from.
type GeneratedName struct {
	Name     string
	Template string
}

// DefaultTemplate returns the template used for tag when no custom template
// is supplied.
func DefaultTemplate(tag domain.ContextTag) (string, error) {
	if !tag.IsValid() {
		return "", fmt.Errorf("%w: invalid context tag %q", domain.ErrValidation, tag)
	}
	return PlaceholderOrganization + " - " + PlaceholderPrincipal + " - " + tag.Label(), nil
}

// GenerateName substitutes the organization and principal names into either
// customTemplate (when non-blank) or the default template for tag. The
// result depends only on its inputs. tag is validated even when a custom
// template is used, and a name longer than domain.MaxNameLength is rejected
// rather than truncated.
func GenerateName(
	organizationName string,
	principalName string,
	tag domain.ContextTag,
	customTemplate *string,
) (GeneratedName, error) {
	organizationName = strings.TrimSpace(organizationName)
	principalName = strings.TrimSpace(principalName)
	if organizationName == "" {
		return GeneratedName{}, fmt.Errorf("%w: organization name is required", domain.ErrValidation)
	}
	if principalName == "" {
		return GeneratedName{}, fmt.Errorf("%w: principal name is required", domain.ErrValidation)
	}
	if !tag.IsValid() {
		return GeneratedName{}, fmt.Errorf("%w: invalid context tag %q", domain.ErrValidation, tag)
	}

	generated := GeneratedName{Template: domain.TemplateCustom}
	if custom := customTemplateText(customTemplate); custom != "" {
		generated.Name = render(custom, organizationName, principalName)
	} else {
		template, err := DefaultTemplate(tag)
		if err != nil {
			return GeneratedName{}, err
		}
		generated.Name = render(template, organizationName, principalName)
		generated.Template = tag.String()
	}

	if n := utf8.RuneCountInString(generated.Name); n > domain.MaxNameLength {
		return GeneratedName{}, fmt.Errorf("%w: generated name exceeds %d characters (got %d)", domain.ErrValidation, domain.MaxNameLength, n)
	}
	return generated, nil
}

// GenerateBatchNamePreviews applies GenerateName to each principal, keeping
// the caller's order. It creates nothing and may be called freely.
func GenerateBatchNamePreviews(
	organizationName string,
	principals []domain.NamedEntity,
	tag domain.ContextTag,
	customTemplate *string,
) ([]domain.NamePreview, error) {
	previews := make([]domain.NamePreview, 0, len(principals))
	for _, principal := range principals {
		generated, err := GenerateName(organizationName, principal.Name, tag, customTemplate)
		if err != nil {
			return nil, fmt.Errorf("principal %q: %w", principal.ID, err)
		}
		previews = append(previews, domain.NamePreview{
			PrincipalID:   principal.ID,
			PrincipalName: strings.TrimSpace(principal.Name),
			Name:          generated.Name,
			Template:      generated.Template,
		})
	}
	return previews, nil
}

func customTemplateText(customTemplate *string) string {
	if customTemplate == nil {
		return ""
	}
	if strings.TrimSpace(*customTemplate) == "" {
		return ""
	}
	return *customTemplate
}

// render is a single literal pass; substituted values are never re-expanded.
func render(template, organizationName, principalName string) string {
	return strings.NewReplacer(
		PlaceholderOrganization, organizationName,
		PlaceholderPrincipal, principalName,
	).Replace(template)
}
