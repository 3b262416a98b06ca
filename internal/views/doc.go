// ABOUTME: Package doc for the view assembly layer
// ABOUTME: Describes read-model composition and markdown rendering

// Package views assembles detail read models from the entity store.
//
// A detail view joins an entity with everything a client would otherwise
// fetch in several round trips: a character with its player, user, game,
// groups, and plots. The association tables remain the source of truth;
// the ID arrays in each view are derived at read time and never written
// back.
//
// Markdown description fields are rendered to HTML with goldmark (GFM
// extensions enabled) and served alongside the raw text.
package views
