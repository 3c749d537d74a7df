// Package domain implements detection of the Amundsen Sea Low (ASL) in
// gridded mean-sea-level-pressure fields.
//
// # Data Source
//
// Pressure fields are ERA5 monthly-mean MSLP composites from the Copernicus
// Climate Data Store, one 2-D field (latitude x longitude) per month, together
// with the ERA5 land-sea mask. The adapter layer converts Pa to hPa and hands
// this package plain grids; nothing here touches NetCDF.
//
// # Method
//
// The ASL is the deepest closed low inside a fixed Amundsen Sea sector
// (170-298E, 60-80S, Hosking et al. 2013). For each month:
//
//  1. The sector-average pressure is the mean over ocean cells in the sector.
//     Land cells are excluded because MSLP extrapolated below the Antarctic
//     ice sheet is unreliable and would otherwise attract spurious minima.
//  2. The candidate center is the ocean cell with minimum pressure in the
//     sector. Ties resolve to the first cell in latitude-then-longitude
//     scan order so repeated runs agree.
//  3. The candidate must be a genuine closed low, not an open trough. A
//     contour at level L encircles the candidate exactly when the connected
//     region of cells below L containing it stays clear of the edge of a
//     wider search window (sector expanded by a border, default 8 degrees).
//     The region grows with L, so testing the single lowest admissible level
//     (candidate pressure + the configured contour step) decides whether any
//     admissible closed contour exists. Land and missing cells act as
//     barriers, equivalent to filling land with a maximal pressure.
//
// Reported metrics per month: actual central pressure (ActCenPres), sector
// mean (SectorPres), relative central pressure (RelCenPres = ActCenPres -
// SectorPres, always <= 0 when a low is found), and the center coordinates.
// Pressures are rounded to 1 decimal, coordinates to 2.
//
// # Longitude Convention
//
// ERA5 uses [0, 360); other products use [-180, 180]. All longitudes -- grid
// coordinates and sector bounds alike -- are canonicalized to [0, 360) once,
// at construction. A sector of 170..-62 therefore selects the same window as
// 170..298. Grid columns are rotated after normalization so longitudes always
// ascend, which keeps windowing a contiguous index-range problem even when a
// window crosses the 0/360 seam.
//
// # Missing Data
//
// A month with no usable data (all-NaN field, nothing ocean-eligible) yields
// a record whose analytic fields are missing while the time stamp survives;
// a run never drops a month silently. An unclosed candidate is reported with
// Closed=false or withheld entirely depending on the configured policy.
package domain

// CalculationVersion identifies the revision of the detection method, not of
// this module. It is stamped on published records so consumers can tell
// which method produced a row.
const CalculationVersion = "3.20210820"
