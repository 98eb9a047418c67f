package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateElementID validates a topology element id.
//
// The rules are conservative:
//   - No empty ids
//   - No control characters
//   - Maximum length of 253 characters (a Kubernetes object name)
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidModel, "element id cannot be empty")
	}

	if len(id) > 253 {
		return New(ErrCodeInvalidModel, "element id too long (max 253 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidModel, "element id %q contains control characters", id)
		}
	}

	return nil
}

// dnsSubdomainRegex matches RFC 1123 subdomains as used for most
// Kubernetes object names.
var dnsSubdomainRegex = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?(\.[a-z0-9]([-a-z0-9]*[a-z0-9])?)*$`)

// ValidateResourceName validates a Kubernetes object name.
func ValidateResourceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	if len(name) > 253 {
		return New(ErrCodeInvalidName, "name too long (max 253 characters)")
	}

	if !dnsSubdomainRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid name %q: must consist of lower case alphanumeric characters, '-' or '.'", name)
	}

	return nil
}

// dnsLabelRegex matches RFC 1123 labels, the rule for namespaces.
var dnsLabelRegex = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidateNamespace validates a namespace name.
func ValidateNamespace(ns string) error {
	if ns == "" {
		return New(ErrCodeInvalidName, "namespace cannot be empty")
	}

	if len(ns) > 63 || !dnsLabelRegex.MatchString(ns) {
		return New(ErrCodeInvalidName, "invalid namespace %q", ns)
	}

	return nil
}

// ValidateGitURL validates a repository URL for a pipeline git resource.
// It accepts http(s), ssh and git schemes and scp-like git@host:path forms.
func ValidateGitURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "git URL cannot be empty")
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "git URL contains invalid characters")
		}
	}

	for _, prefix := range []string{"http://", "https://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(rawURL, prefix) {
			return nil
		}
	}

	return New(ErrCodeInvalidInput, "git URL must use http, https, ssh or git scheme")
}
