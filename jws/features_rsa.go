//go:build !xjws_norsa

package jws

const featureRSA = true
