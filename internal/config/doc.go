// Package config defines the format-agnostic model produced by loading content
// packs and character files, along with the Loader interface implemented by
// concrete formats such as HCL, and environment parsing for application
// settings.
//
// The `config.Model` is what the application hands to the content stores and
// to the coordinator. Nothing downstream of it knows which file format the
// data came from.
package config
