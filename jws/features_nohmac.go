//go:build xjws_nohmac

package jws

const featureHMAC = false
