// Package aggregator projects the running backends into one capability
// catalog.
//
// Each running backend contributes two tools, <backend>_search and
// <backend>_list, and one resource, repo://<backend>/. Tool names are
// routed back to their backend by splitting on the first underscore,
// which is why backend names may not contain one.
package aggregator
