// Package uploader provides a minimal web form that accepts one file per
// request and stores it to local disk.
package uploader
