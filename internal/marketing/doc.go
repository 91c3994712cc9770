// Package marketing produces the listing collateral that sits outside the
// video pipeline: square card-news images for blog and social posts, and a
// pre-filled sales contract document.
package marketing
