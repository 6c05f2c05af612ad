// Package chunk plans how long signals are split for segmented
// processing. Cuts are placed at the quietest point near each nominal
// interval and snapped to analysis-hop multiples, so downstream frame
// indexing stays aligned and chunk seams fall into low-energy regions.
package chunk
