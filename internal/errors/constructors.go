package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Site layout errors

func MissingRootFile(kind, path string, cause error) *SiteError {
	return Wrap(cause, CategoryLayout, SeverityFatal, "site root is missing its "+kind).
		WithContext("path", path)
}

func SectionSkipped(dir string, cause error) *SiteError {
	return Wrap(cause, CategoryLayout, SeverityWarning, "section excluded").
		WithContext("path", dir)
}

// Content errors

func ContentUnreadable(path string, cause error) *SiteError {
	return Wrap(cause, CategoryContent, SeverityWarning, "content file unreadable").
		WithContext("path", path)
}

// Render errors

func TemplateFailed(route string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplate, SeverityError, "template rendering failed").
		WithContext("route", route)
}

func OutputFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityError, "writing output failed").
		WithContext("path", path)
}

func BuildFailed(stage string, cause error) *SiteError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
