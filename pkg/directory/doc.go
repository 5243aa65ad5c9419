// Package directory reads the station directory of an internet radio aggregator.
package directory
