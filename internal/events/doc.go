// Package events provides in-process events published by the study service.
//
// Services emit events without knowing which handlers will process them. The
// only event today is ReviewRecorded, emitted after a review has committed;
// the aggregate review counter subscribes to it.
package events
