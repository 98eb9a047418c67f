// Package ocs selects the nodes an OpenShift Container Storage cluster is
// installed on and submits the install.
//
// The flow mirrors the install page of the console:
//
//  1. [Rows] turns the candidate nodes (see [Candidates]) into table rows
//  2. [PreSelect] ticks the nodes already labeled for storage
//  3. A [Selection] tracks ticks across name filtering
//  4. [Installer.Submit] labels the selected nodes and creates the
//     StorageCluster backed by the platform's default storage class
//
// Tainting the selected nodes is deliberately not part of the flow.
package ocs
