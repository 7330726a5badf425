// Package compile turns mapping plans into executable mappers.
//
// Every plan node becomes a closure taking the runtime frame, the source
// value and the current target value. Object frames mirror the frames the
// plan was resolved with, so data sources configured on outer objects read
// from the matching outer source object. Each root call owns an identity
// registry shared by every mapper it reaches through runtime dispatch.
package compile
