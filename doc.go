/*
Command photoz computes photometric redshifts by fitting source photometry
against a grid of model photometries.

Contents

  Program overview
  Command line usage
  Configuration
  File formats
  Algorithm outline
  Calibration


Program overview

Input is a catalog of sources, each with flux and flux error in a set of
filters, and a model grid file.  The model grid holds precomputed model
photometry for every combination of redshift, E(B-V) color excess,
reddening curve and spectral energy distribution (SED).  Output is, for
each source, the best fitting model and a one dimensional probability
density, normally over redshift.

The helper command pzmk writes a synthetic model grid and a synthetic
catalog with known redshifts.  The helper command pzqa compares photoz
output against known redshifts.

Sample run:

	pzmk -n 500
	photoz -k photoz.cat -o photoz.out
	pzqa photoz.out

Output lines look like this,

	# ID RA Dec Zref Z EBV Reddening SED Scale Likelihood Mode
	1 3ʰ21ᵐ07.35ˢ -12°44′10.5″ 0.6500 0.6500 0.100 ext/calzetti pl/sbc 1.2 0.83 0.6500

With -pdf, the probability density values follow the Mode column and a
second heading line lists the axis values they belong to.


Command line usage

  Usage: photoz [options] -k <catalog>            fit catalog sources
         photoz [options] -calibrate -k <catalog> calibrate corrections
         photoz -v                                display version

  Options:
         -c <config-file>       YAML configuration
         -g <grid-file>         model grid, created by pzmk
         -k <catalog-file>      source catalog, - for stdin
         -o <output-file>       default stdout
         -p <corrections-file>  photometric corrections
         -t <threads>           0 for all cores
         -pdf                   write pdf values
         -metrics <host:port>   serve prometheus metrics
         -log <level>           debug, info, warn, error

Log messages go to stderr.  Each run logs a run_id.


Configuration

Settings come from, in increasing precedence, built in defaults, a YAML
file named with -c, environment variables, and the command line.  The
YAML file has these sections and keys, shown with their defaults:

	files:
	  grid: photoz.grid
	  catalog:
	  corrections:
	  output:
	  pdf: false
	fit:
	  threads: 0
	  scale: min-chi2      # or unit
	  likelihood: gaussian # or chi2
	  marginalize: Z       # or EBV
	calibration:
	  enabled: false
	  max_iterations: 20
	  tolerance: 0.0001
	  aggregator: median   # mean, weighted-mean, weighted-median
	logging:
	  level: info
	  format: text         # or json
	metrics:
	  listen:

Environment variables are named PHOTOZ_<SECTION>_<KEY>, for example
PHOTOZ_FIT_THREADS or PHOTOZ_CALIBRATION_MAX_ITERATIONS.


File formats

The catalog is a text file of whitespace separated columns.  Blank lines
and lines starting with # are ignored.  The first line is a header,

	ID RA DEC Z u u_err g g_err r r_err

RA and DEC are in degrees and Z is a known reference redshift.  Any of
these three may be - if unknown.  Filter columns come in pairs, flux
then flux error, and the filter names must match those of the model grid.
Extra catalog filters are ignored in fitting.

The model grid is a binary file written by pzmk.

The corrections file has two columns, filter name and a multiplicative
correction applied to observed flux (not to flux error).  It is written by
photoz -calibrate.  Without a corrections file, all corrections are 1.


Algorithm outline

1.  The source flux in each filter is multiplied by its photometric
correction.  A filter without a correction is an error for that source.

2.  For every model in the grid, the scale factor minimizing chi square
between source and scaled model is computed, and from it a likelihood.
Filters are matched by name.  If the source lacks a model filter, the
source fails.

3.  The model with the highest likelihood is the best fit.  Ties go to the
first model in grid order, with redshift varying slowest, then E(B-V),
then reddening curve, then SED.

4.  The likelihood grid is reduced to one dimension by taking, for each
redshift, the maximum likelihood over all other axes.  The result is
normalized so that its trapezoid integral over redshift is 1.

Sources are fit in parallel.  Output is always in catalog order.  If any
source fails, the run stops with an error naming the source.  With more
than one thread, no output lines are written in that case.


Calibration

With -calibrate, photoz estimates photometric corrections from the
catalog sources that have reference redshifts, and writes them in the
corrections file format.  Each iteration fits every reference source with
redshift fixed at the grid value nearest its reference redshift, computes
for each filter the correction that brings the observed flux onto the
scaled best fit model, and combines these over sources with the
configured aggregator.  Iteration stops when every correction changes by
less than the tolerance, or after the maximum number of iterations.

Corrections are only determined up to a common factor.  Given -p, the
corrections file is the starting point, and if it is already converged
calibration stops after one iteration.

-------------
Public domain.
*/
package main
