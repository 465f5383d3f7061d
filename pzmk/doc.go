/*
Command pzmk prepares data files for photoz.

It writes a model grid file and, optionally, a catalog of sources drawn
from the grid.  Both are synthetic.  Model spectra are broken power laws
with a break at 400nm, reddened by one of two extinction curves and
redshifted through five top-hat passbands named u, g, r, i and z.

Catalog sources are grid models scaled by a random factor, with gaussian
flux noise at the requested signal to noise ratio.  Each source gets a
random sky position and, unless -noref says otherwise, a reference
redshift equal to the redshift of the model it was drawn from.  The same
seed always produces the same catalog.

  Usage:
    pzmk [options]    Write a synthetic model grid and catalog.
    pzmk -v           Display version and copyright.

  Options:
    -g=photoz.grid  model grid file to write
    -k=photoz.cat   catalog file to write, empty for none
    -zmax=1.5       maximum grid redshift
    -dz=0.05        grid redshift step
    -n=1000         catalog sources
    -s=1            random seed
    -snr=50         catalog signal to noise ratio
    -noref=0        fraction of sources without reference redshift
    -offset=        zero point offsets, as g=1.05,i=.97

Offsets multiply the catalog flux of the named filters.  They simulate
zero point errors for testing photoz -calibrate, which should find
corrections proportional to the reciprocals of the offsets.
*/
package main
