//go:build xjws_noecdsa

package jws

const featureECDSA = false
