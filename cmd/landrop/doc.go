// Command landrop is the command line client for a LanDrop server.
//
//	landrop ls                      list everything on the server
//	landrop upload ./photos a.txt   upload a folder and a file
//	landrop get docs/a.txt -o .     download a file
//	landrop rm docs                 delete a folder
//	landrop server set 192.168.1.5:3001
package main
