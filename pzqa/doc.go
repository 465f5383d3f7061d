/*
Command pzqa reports photometric redshift quality from photoz output.

  Usage: pzqa [options] <photoz-output> ...
    -outlier=0.15: outlier threshold on |dz|/(1+z)
    -v=false: display version and copyright

The command line arguments are files of captured photoz output.  Sources
with a reference redshift, those with a value in the Zref column, are
compared with their best fit redshift.  Other sources are counted but
otherwise ignored.

For each compared source,

	dz = (z - zref) / (1 + zref)

pzqa reports these statistics of dz:

Mean bias is the mean of dz.

Median bias is the median of dz, insensitive to outliers.

Sigma NMAD is the normalized median absolute deviation,
1.4826 * median(|dz - median(dz)|).  It estimates the standard deviation
of dz while ignoring outliers.

Outliers are sources with |dz| greater than the -outlier threshold.

To try it out on synthetic data,

	pzmk -n 2000 -snr 20
	photoz -k photoz.cat -o photoz.out
	pzqa photoz.out

Lines starting with # are ignored, so photoz headings need not be removed.
*/
package main
